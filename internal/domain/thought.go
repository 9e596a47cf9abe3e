package domain

import "errors"

// ErrTerminalStatus is returned when a thought that already reached a
// terminal status is accepted or rejected again.
var ErrTerminalStatus = errors.New("thought already has a terminal status")

// ContextChunk is one span of retrieved wiki text. Chunks are produced by
// the retrieval collaborator and are read-only for the duration of a query.
type ContextChunk struct {
	Text     string  `json:"text"`
	SourceID string  `json:"source_id"`
	Title    string  `json:"title,omitempty"`
	Score    float64 `json:"score"`
}

type ThoughtStatus string

const (
	StatusCandidate ThoughtStatus = "candidate"
	StatusAccepted  ThoughtStatus = "accepted"
	StatusRejected  ThoughtStatus = "rejected"
)

// Provenance is the evidence trail of a thought: the wiki pages that back
// it and the ids of the retrieved chunks it was derived from.
type Provenance struct {
	SourcePages []string `json:"source_pages"`
	ChunkIDs    []int    `json:"chunk_ids,omitempty"`
}

// Merge unions other into p, preserving insertion order and dropping
// duplicates.
func (p *Provenance) Merge(other Provenance) {
	seen := make(map[string]bool, len(p.SourcePages))
	for _, page := range p.SourcePages {
		seen[page] = true
	}
	for _, page := range other.SourcePages {
		if !seen[page] {
			p.SourcePages = append(p.SourcePages, page)
			seen[page] = true
		}
	}

	seenChunk := make(map[int]bool, len(p.ChunkIDs))
	for _, id := range p.ChunkIDs {
		seenChunk[id] = true
	}
	for _, id := range other.ChunkIDs {
		if !seenChunk[id] {
			p.ChunkIDs = append(p.ChunkIDs, id)
			seenChunk[id] = true
		}
	}
}

func (p Provenance) HasPage(page string) bool {
	for _, s := range p.SourcePages {
		if s == page {
			return true
		}
	}
	return false
}

// Thought is a single factual claim, either a candidate awaiting
// verification or an accepted node in the graph. The status transition is
// one-way: candidate -> accepted or candidate -> rejected.
type Thought struct {
	Claim      string        `json:"claim"`
	Provenance Provenance    `json:"provenance"`
	Confidence float64       `json:"confidence"`
	Status     ThoughtStatus `json:"status"`

	// ParentNode is the graph node this candidate branched from during
	// path exploration, or -1 for candidates generated directly from
	// retrieved context.
	ParentNode int `json:"-"`
}

// NewCandidate creates a candidate thought with no confidence assigned yet.
func NewCandidate(claim string, prov Provenance) Thought {
	return Thought{
		Claim:      claim,
		Provenance: prov,
		Status:     StatusCandidate,
		ParentNode: -1,
	}
}

// Accept marks the thought accepted with its combined gauntlet confidence.
func (t *Thought) Accept(confidence float64) error {
	if t.Status != StatusCandidate {
		return ErrTerminalStatus
	}
	t.Status = StatusAccepted
	t.Confidence = confidence
	return nil
}

// Reject marks the thought rejected.
func (t *Thought) Reject() error {
	if t.Status != StatusCandidate {
		return ErrTerminalStatus
	}
	t.Status = StatusRejected
	return nil
}
