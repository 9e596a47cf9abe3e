package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/verigraph/verigraph/internal/domain"
)

// DefaultMaxConsecutiveFailures is how many backend failures in a row an
// expert tolerates before it stops being consulted for the rest of the
// query.
const DefaultMaxConsecutiveFailures = 3

// EvaluationInput carries the read-only evidence an expert judges a
// candidate against.
type EvaluationInput struct {
	Context []domain.ContextChunk
	History []domain.HistoryEntry
}

// Expert is one member of the verification gauntlet. Evaluate never
// returns an error: any backend failure or timeout becomes a failing
// verdict with zero confidence, so a flaky inference provider can only
// make the gauntlet stricter.
type Expert interface {
	Name() string
	Evaluate(ctx context.Context, t domain.Thought, input EvaluationInput) domain.Verdict
}

// expertHealth tracks consecutive backend failures for one expert within
// one query. Once tripped it stays tripped; the counters are atomic
// because the gauntlet consults experts concurrently.
type expertHealth struct {
	consecutive atomic.Int32
	tripped     atomic.Bool
	maxFailures int32
}

func newExpertHealth(maxFailures int) *expertHealth {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxConsecutiveFailures
	}
	return &expertHealth{maxFailures: int32(maxFailures)}
}

func (h *expertHealth) available() bool {
	return !h.tripped.Load()
}

func (h *expertHealth) recordSuccess() {
	h.consecutive.Store(0)
}

func (h *expertHealth) recordFailure() {
	if h.consecutive.Add(1) >= h.maxFailures {
		h.tripped.Store(true)
	}
}

func failVerdict(expert, rationale string) domain.Verdict {
	return domain.Verdict{
		Expert:      expert,
		Pass:        false,
		Confidence:  0,
		Rationale:   rationale,
		RelatedNode: -1,
	}
}

// SourceMatcher checks that a claim is backed by the retrieved context.
type SourceMatcher struct {
	client domain.InferenceClient
	health *expertHealth
}

func NewSourceMatcher(client domain.InferenceClient, health *expertHealth) *SourceMatcher {
	return &SourceMatcher{client: client, health: health}
}

func (e *SourceMatcher) Name() string { return domain.ExpertSourceMatcher }

func (e *SourceMatcher) Evaluate(ctx context.Context, t domain.Thought, input EvaluationInput) domain.Verdict {
	if !e.health.available() {
		return failVerdict(e.Name(), "expert unavailable for the remainder of this query")
	}
	if len(input.Context) == 0 {
		// No evidence means no support; this needs no backend call.
		return failVerdict(e.Name(), "no retrieved context to match the claim against")
	}

	assessment, err := e.client.AssessSupport(ctx, t.Claim, input.Context)
	if err != nil {
		e.health.recordFailure()
		return failVerdict(e.Name(), fmt.Sprintf("support assessment failed: %v", err))
	}
	e.health.recordSuccess()

	return domain.Verdict{
		Expert:           e.Name(),
		Pass:             assessment.Supported,
		Confidence:       assessment.Confidence,
		Rationale:        assessment.Reasoning,
		SupportingChunks: assessment.SupportingChunks,
		RelatedNode:      -1,
	}
}

// HallucinationHunter looks for atomic sub-claims that the context does
// not back. One unsupported sub-claim fails the whole candidate.
type HallucinationHunter struct {
	client domain.InferenceClient
	health *expertHealth
}

func NewHallucinationHunter(client domain.InferenceClient, health *expertHealth) *HallucinationHunter {
	return &HallucinationHunter{client: client, health: health}
}

func (e *HallucinationHunter) Name() string { return domain.ExpertHallucinationHunter }

func (e *HallucinationHunter) Evaluate(ctx context.Context, t domain.Thought, input EvaluationInput) domain.Verdict {
	if !e.health.available() {
		return failVerdict(e.Name(), "expert unavailable for the remainder of this query")
	}

	report, err := e.client.FindUnsupported(ctx, t.Claim, input.Context)
	if err != nil {
		e.health.recordFailure()
		return failVerdict(e.Name(), fmt.Sprintf("hallucination check failed: %v", err))
	}
	e.health.recordSuccess()

	if len(report.UnsupportedClaims) > 0 {
		return domain.Verdict{
			Expert:      e.Name(),
			Pass:        false,
			Confidence:  report.Confidence,
			Rationale:   "unsupported claims: " + strings.Join(report.UnsupportedClaims, "; "),
			RelatedNode: -1,
		}
	}
	return domain.Verdict{
		Expert:      e.Name(),
		Pass:        true,
		Confidence:  report.Confidence,
		Rationale:   "every sub-claim is grounded in the retrieved context",
		RelatedNode: -1,
	}
}

// LogicExpert judges a candidate against the accepted reasoning history:
// contradiction or incoherence fails it, redundancy redirects it into a
// merge with the node it duplicates.
type LogicExpert struct {
	client domain.InferenceClient
	health *expertHealth
}

func NewLogicExpert(client domain.InferenceClient, health *expertHealth) *LogicExpert {
	return &LogicExpert{client: client, health: health}
}

func (e *LogicExpert) Name() string { return domain.ExpertLogicExpert }

func (e *LogicExpert) Evaluate(ctx context.Context, t domain.Thought, input EvaluationInput) domain.Verdict {
	if !e.health.available() {
		return failVerdict(e.Name(), "expert unavailable for the remainder of this query")
	}

	assessment, err := e.client.AssessCoherence(ctx, t.Claim, input.History)
	if err != nil {
		e.health.recordFailure()
		return failVerdict(e.Name(), fmt.Sprintf("coherence assessment failed: %v", err))
	}
	e.health.recordSuccess()

	related := assessment.RelatedNode
	if assessment.Action != domain.ActionMerge {
		related = -1
	}

	return domain.Verdict{
		Expert:      e.Name(),
		Pass:        assessment.Action == domain.ActionKeep,
		Confidence:  assessment.Coherence,
		Rationale:   assessment.Remarks,
		Action:      assessment.Action,
		RelatedNode: related,
	}
}
