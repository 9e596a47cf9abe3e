package domain

import (
	"errors"
	"testing"
)

func acceptedThought(claim string, pages ...string) Thought {
	t := NewCandidate(claim, Provenance{SourcePages: pages})
	_ = t.Accept(0.8)
	return t
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := NewGraph()

	a := g.AddNode(acceptedThought("A", "PageA"))
	b := g.AddNode(acceptedThought("B", "PageB"))

	if a != 0 || b != 1 {
		t.Fatalf("node ids = %d, %d, want 0, 1", a, b)
	}

	if err := g.AddEdge(a, b, "shares source PageA", 0.7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	neighbors := g.Neighbors(a)
	if len(neighbors) != 1 || neighbors[0] != b {
		t.Errorf("Neighbors(%d) = %v, want [%d]", a, neighbors, b)
	}
}

func TestGraph_AddEdge_Invariants(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(acceptedThought("A"))
	b := g.AddNode(acceptedThought("B"))

	tests := []struct {
		name    string
		from    int
		to      int
		reason  string
		wantErr error
	}{
		{"dangling target", a, 99, "reason", ErrDanglingEdge},
		{"dangling source", -1, b, "reason", ErrDanglingEdge},
		{"empty reason", a, b, "", ErrEmptyEdgeReason},
		{"self edge", a, a, "reason", ErrSelfEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.AddEdge(tt.from, tt.to, tt.reason, 0.5)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddEdge() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d after rejected edges, want 0", g.EdgeCount())
	}
}

// Every edge must reference nodes present in the arena, for any sequence
// of insert/link/merge operations.
func TestGraph_NoDanglingEdges(t *testing.T) {
	g := NewGraph()

	for i := 0; i < 10; i++ {
		id := g.AddNode(acceptedThought("claim", "Page"))
		for _, other := range g.Neighbors(id) {
			_ = g.AddEdge(id, other, "loop", 0.5)
		}
		if id > 0 {
			_ = g.AddEdge(id-1, id, "chain", 0.5)
			_ = g.MergeProvenance(id-1, Provenance{SourcePages: []string{"Other"}})
		}
		// Attempts against absent nodes must not corrupt the arena.
		_ = g.AddEdge(id, id+100, "bad", 0.5)
	}

	export := g.Serialize()
	for _, e := range export.Edges {
		if e.From < 0 || e.From >= len(export.Nodes) || e.To < 0 || e.To >= len(export.Nodes) {
			t.Fatalf("dangling edge %+v with %d nodes", e, len(export.Nodes))
		}
	}
}

func TestGraph_NeighborsOrdered(t *testing.T) {
	g := NewGraph()
	root := g.AddNode(acceptedThought("root"))
	var want []int
	for i := 0; i < 5; i++ {
		id := g.AddNode(acceptedThought("child"))
		if err := g.AddEdge(root, id, "chain", 0.5); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want = append(want, id)
	}

	got := g.Neighbors(root)
	if len(got) != len(want) {
		t.Fatalf("Neighbors() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Neighbors()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestGraph_MergeProvenance(t *testing.T) {
	g := NewGraph()
	id := g.AddNode(acceptedThought("claim", "PageA"))

	err := g.MergeProvenance(id, Provenance{SourcePages: []string{"PageA", "PageB"}, ChunkIDs: []int{3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	node, ok := g.Node(id)
	if !ok {
		t.Fatal("node disappeared after merge")
	}
	if len(node.Provenance.SourcePages) != 2 {
		t.Errorf("source pages = %v, want [PageA PageB]", node.Provenance.SourcePages)
	}
	if len(node.Provenance.ChunkIDs) != 1 || node.Provenance.ChunkIDs[0] != 3 {
		t.Errorf("chunk ids = %v, want [3]", node.Provenance.ChunkIDs)
	}

	if err := g.MergeProvenance(42, Provenance{}); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("MergeProvenance(42) error = %v, want ErrNodeNotFound", err)
	}
}

func TestGraph_SnapshotIsolation(t *testing.T) {
	g := NewGraph()
	g.AddNode(acceptedThought("first"))

	snap := g.Snapshot()
	g.AddNode(acceptedThought("second"))

	if len(snap) != 1 {
		t.Errorf("snapshot length = %d after later insert, want 1", len(snap))
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
}

func TestGraph_Serialize(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(acceptedThought("Governors are A and B", "PageX"))
	b := g.AddNode(acceptedThought("The society was founded in 1951", "PageX"))
	if err := g.AddEdge(a, b, "shares source PageX", 0.9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	export := g.Serialize()
	if len(export.Nodes) != 2 || len(export.Edges) != 1 {
		t.Fatalf("export = %d nodes, %d edges, want 2, 1", len(export.Nodes), len(export.Edges))
	}
	if export.Nodes[0].Claim != "Governors are A and B" {
		t.Errorf("node claim = %q", export.Nodes[0].Claim)
	}
	if export.Nodes[0].SourcePages[0] != "PageX" {
		t.Errorf("node provenance = %v, want [PageX]", export.Nodes[0].SourcePages)
	}
	if export.Edges[0].Reason != "shares source PageX" {
		t.Errorf("edge reason = %q", export.Edges[0].Reason)
	}
}

func TestThought_StatusTransitions(t *testing.T) {
	th := NewCandidate("claim", Provenance{})

	if err := th.Accept(0.9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th.Status != StatusAccepted || th.Confidence != 0.9 {
		t.Errorf("thought = %+v, want accepted with confidence 0.9", th)
	}

	if err := th.Accept(0.5); !errors.Is(err, ErrTerminalStatus) {
		t.Errorf("second Accept error = %v, want ErrTerminalStatus", err)
	}
	if err := th.Reject(); !errors.Is(err, ErrTerminalStatus) {
		t.Errorf("Reject after Accept error = %v, want ErrTerminalStatus", err)
	}

	rejected := NewCandidate("other", Provenance{})
	if err := rejected.Reject(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rejected.Accept(0.9); !errors.Is(err, ErrTerminalStatus) {
		t.Errorf("Accept after Reject error = %v, want ErrTerminalStatus", err)
	}
}

func TestProvenance_Merge(t *testing.T) {
	p := Provenance{SourcePages: []string{"A"}, ChunkIDs: []int{1, 2}}
	p.Merge(Provenance{SourcePages: []string{"B", "A"}, ChunkIDs: []int{2, 3}})

	wantPages := []string{"A", "B"}
	if len(p.SourcePages) != len(wantPages) {
		t.Fatalf("pages = %v, want %v", p.SourcePages, wantPages)
	}
	for i := range wantPages {
		if p.SourcePages[i] != wantPages[i] {
			t.Errorf("pages[%d] = %q, want %q", i, p.SourcePages[i], wantPages[i])
		}
	}

	wantChunks := []int{1, 2, 3}
	if len(p.ChunkIDs) != len(wantChunks) {
		t.Fatalf("chunks = %v, want %v", p.ChunkIDs, wantChunks)
	}
}
