package domain

import "errors"

var (
	ErrDanglingEdge    = errors.New("edge references a node not in the graph")
	ErrEmptyEdgeReason = errors.New("edge requires a non-empty reason")
	ErrNodeNotFound    = errors.New("node not found")
	ErrSelfEdge        = errors.New("edge endpoints must differ")
)

// Edge is a directed relation between two accepted thoughts. Every edge
// carries a reason string so the graph stays auditable.
type Edge struct {
	From     int     `json:"from"`
	To       int     `json:"to"`
	Reason   string  `json:"reason"`
	Strength float64 `json:"strength"`
}

// HistoryEntry is the read-only view of an accepted node handed to the
// Logic Expert as reasoning history.
type HistoryEntry struct {
	NodeID     int     `json:"node_id"`
	Claim      string  `json:"claim"`
	Confidence float64 `json:"confidence"`
}

// NodeExport and GraphExport are the wire form of the graph, sufficient
// for a visualization layer to render without recomputation.
type NodeExport struct {
	ID          int      `json:"id"`
	Claim       string   `json:"claim"`
	SourcePages []string `json:"source_pages"`
	ChunkIDs    []int    `json:"chunk_ids,omitempty"`
	Confidence  float64  `json:"confidence"`
}

type GraphExport struct {
	Nodes []NodeExport `json:"nodes"`
	Edges []Edge       `json:"edges"`
}

// Graph is the thought graph for one query: an arena of accepted thoughts
// indexed by dense integer id plus an adjacency list keyed by id. It is
// owned by a single reasoning engine session and is not safe for
// concurrent mutation; the engine serializes all writes.
type Graph struct {
	nodes []Thought
	edges []Edge
	adj   map[int][]int
}

func NewGraph() *Graph {
	return &Graph{adj: make(map[int][]int)}
}

// AddNode inserts an accepted thought and returns its node id. Nodes are
// never removed or mutated afterwards; MergeProvenance is the single
// sanctioned exception.
func (g *Graph) AddNode(t Thought) int {
	g.nodes = append(g.nodes, t)
	return len(g.nodes) - 1
}

// AddEdge creates a directed edge between two existing nodes. The reason
// string is mandatory.
func (g *Graph) AddEdge(from, to int, reason string, strength float64) error {
	if reason == "" {
		return ErrEmptyEdgeReason
	}
	if from == to {
		return ErrSelfEdge
	}
	if !g.has(from) || !g.has(to) {
		return ErrDanglingEdge
	}
	g.edges = append(g.edges, Edge{From: from, To: to, Reason: reason, Strength: strength})
	g.adj[from] = append(g.adj[from], to)
	return nil
}

// Neighbors returns the out-neighbors of a node in edge insertion order.
func (g *Graph) Neighbors(id int) []int {
	out := make([]int, len(g.adj[id]))
	copy(out, g.adj[id])
	return out
}

// AllNodes returns a copy of the node arena in insertion order.
func (g *Graph) AllNodes() []Thought {
	out := make([]Thought, len(g.nodes))
	copy(out, g.nodes)
	return out
}

func (g *Graph) Node(id int) (Thought, bool) {
	if !g.has(id) {
		return Thought{}, false
	}
	return g.nodes[id], true
}

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

// MergeProvenance folds a redundant candidate's provenance into an
// existing node instead of inserting a duplicate.
func (g *Graph) MergeProvenance(id int, prov Provenance) error {
	if !g.has(id) {
		return ErrNodeNotFound
	}
	g.nodes[id].Provenance.Merge(prov)
	return nil
}

// Snapshot returns the accepted-thought history as of the call. Callers
// receive an independent copy: candidates verified against a snapshot
// never observe nodes accepted after it was taken.
func (g *Graph) Snapshot() []HistoryEntry {
	out := make([]HistoryEntry, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = HistoryEntry{NodeID: i, Claim: n.Claim, Confidence: n.Confidence}
	}
	return out
}

// Serialize exports the full graph for the caller.
func (g *Graph) Serialize() GraphExport {
	nodes := make([]NodeExport, len(g.nodes))
	for i, n := range g.nodes {
		pages := make([]string, len(n.Provenance.SourcePages))
		copy(pages, n.Provenance.SourcePages)
		chunks := make([]int, len(n.Provenance.ChunkIDs))
		copy(chunks, n.Provenance.ChunkIDs)
		nodes[i] = NodeExport{
			ID:          i,
			Claim:       n.Claim,
			SourcePages: pages,
			ChunkIDs:    chunks,
			Confidence:  n.Confidence,
		}
	}
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return GraphExport{Nodes: nodes, Edges: edges}
}

func (g *Graph) has(id int) bool {
	return id >= 0 && id < len(g.nodes)
}
