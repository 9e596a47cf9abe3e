package domain

import "context"

// Retriever is the retrieval collaborator boundary. It returns chunks
// ordered by relevance; an empty slice means the corpus has nothing for
// the query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]ContextChunk, error)
}

// GeneratedThought is one candidate claim proposed by the inference
// backend, with the indexes of the chunks it was derived from.
type GeneratedThought struct {
	Claim    string `json:"claim"`
	ChunkIDs []int  `json:"chunk_ids"`
}

// SupportAssessment is the Source Matcher's structured inference result.
type SupportAssessment struct {
	Supported        bool    `json:"supported"`
	Confidence       float64 `json:"confidence"`
	SupportingChunks []int   `json:"supporting_chunks"`
	Reasoning        string  `json:"reasoning"`
}

// HallucinationReport enumerates atomic sub-claims that lack support.
type HallucinationReport struct {
	UnsupportedClaims []string `json:"unsupported_claims"`
	Confidence        float64  `json:"confidence"`
}

// LogicAssessment is the Logic Expert's structured inference result.
// RelatedNode is a graph node id from the history, or -1.
type LogicAssessment struct {
	Coherence   float64     `json:"coherence"`
	Redundant   bool        `json:"redundant"`
	Action      LogicAction `json:"action"`
	RelatedNode int         `json:"related_node"`
	Remarks     string      `json:"remarks"`
}

// RelevanceResult classifies whether a query could plausibly concern the
// corpus at all.
type RelevanceResult struct {
	Relevant  bool   `json:"relevant"`
	Reasoning string `json:"reasoning"`
}

// VerifiedFact is an accepted node handed to answer synthesis.
type VerifiedFact struct {
	Claim       string   `json:"claim"`
	Confidence  float64  `json:"confidence"`
	SourcePages []string `json:"source_pages"`
}

// InferenceClient is the inference collaborator boundary used by thought
// generation and by the experts. Every call is fallible and bounded by
// its context; callers must treat errors and timeouts as expected.
type InferenceClient interface {
	GenerateThoughts(ctx context.Context, query string, chunks []ContextChunk, focus string, limit int) ([]GeneratedThought, error)
	AssessSupport(ctx context.Context, claim string, chunks []ContextChunk) (*SupportAssessment, error)
	FindUnsupported(ctx context.Context, claim string, chunks []ContextChunk) (*HallucinationReport, error)
	AssessCoherence(ctx context.Context, claim string, history []HistoryEntry) (*LogicAssessment, error)
	FollowupQueries(ctx context.Context, query string, chunks []ContextChunk) ([]string, error)
	CheckRelevance(ctx context.Context, query string) (*RelevanceResult, error)
	Synthesize(ctx context.Context, query string, facts []VerifiedFact) (string, error)
}
