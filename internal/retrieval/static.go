package retrieval

import (
	"context"
	"sync"

	"github.com/verigraph/verigraph/internal/domain"
)

// StaticRetriever serves a fixed chunk set, for tests and offline runs.
type StaticRetriever struct {
	Chunks []domain.ContextChunk
	Err    error

	mu    sync.Mutex
	calls []string
}

func NewStaticRetriever(chunks []domain.ContextChunk) *StaticRetriever {
	return &StaticRetriever{Chunks: chunks}
}

func (r *StaticRetriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.ContextChunk, error) {
	r.mu.Lock()
	r.calls = append(r.calls, query)
	r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	if topK > 0 && len(r.Chunks) > topK {
		return r.Chunks[:topK], nil
	}
	return r.Chunks, nil
}

// Calls returns the queries seen so far.
func (r *StaticRetriever) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}
