package llm

import (
	"context"
	"sync"

	"github.com/verigraph/verigraph/internal/domain"
)

// MockClient is a configurable inference client for testing. Set the
// response fields to control what each method returns, or the Fn fields
// for per-call behavior. Safe for concurrent use: the gauntlet fans out
// expert calls in parallel.
type MockClient struct {
	mu sync.Mutex

	GenerateThoughtsResponse []domain.GeneratedThought
	GenerateThoughtsError    error
	AssessSupportResponse    *domain.SupportAssessment
	AssessSupportError       error
	FindUnsupportedResponse  *domain.HallucinationReport
	FindUnsupportedError     error
	AssessCoherenceResponse  *domain.LogicAssessment
	AssessCoherenceError     error
	FollowupQueriesResponse  []string
	FollowupQueriesError     error
	CheckRelevanceResponse   *domain.RelevanceResult
	CheckRelevanceError      error
	SynthesizeResponse       string
	SynthesizeError          error

	// Per-call overrides; when set, they win over the static responses.
	GenerateThoughtsFn func(query, focus string) ([]domain.GeneratedThought, error)
	AssessSupportFn    func(claim string) (*domain.SupportAssessment, error)
	FindUnsupportedFn  func(claim string) (*domain.HallucinationReport, error)
	AssessCoherenceFn  func(claim string, history []domain.HistoryEntry) (*domain.LogicAssessment, error)

	// Call tracking for assertions
	GenerateThoughtsCalls []string
	AssessSupportCalls    []string
	FindUnsupportedCalls  []string
	AssessCoherenceCalls  []CoherenceCall
	FollowupQueriesCalls  []string
	CheckRelevanceCalls   []string
	SynthesizeCalls       []string
}

// CoherenceCall records one Logic Expert evaluation together with the
// history snapshot it saw.
type CoherenceCall struct {
	Claim   string
	History []domain.HistoryEntry
}

func NewMockClient() *MockClient {
	return &MockClient{
		GenerateThoughtsResponse: []domain.GeneratedThought{},
		AssessSupportResponse: &domain.SupportAssessment{
			Supported:        true,
			Confidence:       0.9,
			SupportingChunks: []int{0},
			Reasoning:        "supported by excerpt 0",
		},
		FindUnsupportedResponse: &domain.HallucinationReport{
			UnsupportedClaims: []string{},
			Confidence:        0.9,
		},
		AssessCoherenceResponse: &domain.LogicAssessment{
			Coherence:   0.9,
			Action:      domain.ActionKeep,
			RelatedNode: -1,
			Remarks:     "extends the chain",
		},
		CheckRelevanceResponse: &domain.RelevanceResult{Relevant: true, Reasoning: "mock"},
		SynthesizeResponse:     "Mock answer",
	}
}

func (c *MockClient) GenerateThoughts(ctx context.Context, query string, chunks []domain.ContextChunk, focus string, limit int) ([]domain.GeneratedThought, error) {
	c.mu.Lock()
	c.GenerateThoughtsCalls = append(c.GenerateThoughtsCalls, query)
	fn := c.GenerateThoughtsFn
	c.mu.Unlock()

	if fn != nil {
		return fn(query, focus)
	}
	if c.GenerateThoughtsError != nil {
		return nil, c.GenerateThoughtsError
	}
	out := c.GenerateThoughtsResponse
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *MockClient) AssessSupport(ctx context.Context, claim string, chunks []domain.ContextChunk) (*domain.SupportAssessment, error) {
	c.mu.Lock()
	c.AssessSupportCalls = append(c.AssessSupportCalls, claim)
	fn := c.AssessSupportFn
	c.mu.Unlock()

	if fn != nil {
		return fn(claim)
	}
	if c.AssessSupportError != nil {
		return nil, c.AssessSupportError
	}
	return c.AssessSupportResponse, nil
}

func (c *MockClient) FindUnsupported(ctx context.Context, claim string, chunks []domain.ContextChunk) (*domain.HallucinationReport, error) {
	c.mu.Lock()
	c.FindUnsupportedCalls = append(c.FindUnsupportedCalls, claim)
	fn := c.FindUnsupportedFn
	c.mu.Unlock()

	if fn != nil {
		return fn(claim)
	}
	if c.FindUnsupportedError != nil {
		return nil, c.FindUnsupportedError
	}
	return c.FindUnsupportedResponse, nil
}

func (c *MockClient) AssessCoherence(ctx context.Context, claim string, history []domain.HistoryEntry) (*domain.LogicAssessment, error) {
	snapshot := make([]domain.HistoryEntry, len(history))
	copy(snapshot, history)

	c.mu.Lock()
	c.AssessCoherenceCalls = append(c.AssessCoherenceCalls, CoherenceCall{Claim: claim, History: snapshot})
	fn := c.AssessCoherenceFn
	c.mu.Unlock()

	if fn != nil {
		return fn(claim, history)
	}
	if c.AssessCoherenceError != nil {
		return nil, c.AssessCoherenceError
	}
	return c.AssessCoherenceResponse, nil
}

func (c *MockClient) FollowupQueries(ctx context.Context, query string, chunks []domain.ContextChunk) ([]string, error) {
	c.mu.Lock()
	c.FollowupQueriesCalls = append(c.FollowupQueriesCalls, query)
	c.mu.Unlock()

	if c.FollowupQueriesError != nil {
		return nil, c.FollowupQueriesError
	}
	return c.FollowupQueriesResponse, nil
}

func (c *MockClient) CheckRelevance(ctx context.Context, query string) (*domain.RelevanceResult, error) {
	c.mu.Lock()
	c.CheckRelevanceCalls = append(c.CheckRelevanceCalls, query)
	c.mu.Unlock()

	if c.CheckRelevanceError != nil {
		return nil, c.CheckRelevanceError
	}
	return c.CheckRelevanceResponse, nil
}

func (c *MockClient) Synthesize(ctx context.Context, query string, facts []domain.VerifiedFact) (string, error) {
	c.mu.Lock()
	c.SynthesizeCalls = append(c.SynthesizeCalls, query)
	c.mu.Unlock()

	if c.SynthesizeError != nil {
		return "", c.SynthesizeError
	}
	return c.SynthesizeResponse, nil
}
