package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/verigraph/verigraph/internal/domain"
	"github.com/verigraph/verigraph/internal/llm"
)

// stubExpert returns a fixed verdict, optionally after a delay.
type stubExpert struct {
	name    string
	verdict domain.Verdict
	delay   time.Duration
}

func (s *stubExpert) Name() string { return s.name }

func (s *stubExpert) Evaluate(ctx context.Context, t domain.Thought, input EvaluationInput) domain.Verdict {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	v := s.verdict
	v.Expert = s.name
	return v
}

func passVerdict(name string, conf float64) domain.Verdict {
	return domain.Verdict{Expert: name, Pass: true, Confidence: conf, RelatedNode: -1}
}

func stubGauntlet(t *testing.T, cfg GauntletConfig, verdicts ...domain.Verdict) *Gauntlet {
	t.Helper()
	experts := make([]Expert, len(verdicts))
	for i, v := range verdicts {
		experts[i] = &stubExpert{name: v.Expert, verdict: v}
	}
	return NewGauntletWithExperts(experts, cfg, nil)
}

func TestGauntlet_WeightedScore(t *testing.T) {
	g := stubGauntlet(t, GauntletConfig{},
		passVerdict(domain.ExpertSourceMatcher, 0.9),
		passVerdict(domain.ExpertHallucinationHunter, 0.8),
		passVerdict(domain.ExpertLogicExpert, 1.0),
	)

	d := g.Evaluate(context.Background(), candidate("claim"), EvaluationInput{})
	want := 0.4*0.9 + 0.3*0.8 + 0.3*1.0
	if math.Abs(d.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", d.Score, want)
	}
	if !d.Accepted || d.Action != domain.ActionKeep {
		t.Errorf("expected acceptance: %+v", d)
	}
	if len(d.Verdicts) != 3 {
		t.Errorf("expected all verdicts retained, got %d", len(d.Verdicts))
	}
}

// A claim with no source support must be rejected even when the other two
// experts pass with full confidence: their combined weight (0.6) sits
// below the acceptance threshold.
func TestGauntlet_ZeroSupportCannotBeAccepted(t *testing.T) {
	g := stubGauntlet(t, GauntletConfig{},
		domain.Verdict{Expert: domain.ExpertSourceMatcher, Pass: false, Confidence: 0, RelatedNode: -1},
		passVerdict(domain.ExpertHallucinationHunter, 1.0),
		passVerdict(domain.ExpertLogicExpert, 1.0),
	)

	d := g.Evaluate(context.Background(), candidate("claim"), EvaluationInput{})
	if d.Accepted {
		t.Fatalf("claim without source support accepted at score %v", d.Score)
	}
	if math.Abs(d.Score-0.6) > 1e-9 {
		t.Errorf("score = %v, want 0.6", d.Score)
	}
}

func TestGauntlet_DecisionIsDeterministic(t *testing.T) {
	g := stubGauntlet(t, GauntletConfig{},
		passVerdict(domain.ExpertSourceMatcher, 0.9),
		passVerdict(domain.ExpertHallucinationHunter, 0.9),
		domain.Verdict{Expert: domain.ExpertLogicExpert, Pass: false, Confidence: 0.5, Action: domain.ActionDiscard, RelatedNode: -1},
	)

	first := g.Evaluate(context.Background(), candidate("claim"), EvaluationInput{})
	second := g.Evaluate(context.Background(), candidate("claim"), EvaluationInput{})
	if first.Accepted != second.Accepted || first.Score != second.Score || first.Action != second.Action {
		t.Errorf("same input produced different decisions: %+v vs %+v", first, second)
	}
}

func TestGauntlet_HungExpertBecomesFailAtTimeout(t *testing.T) {
	cfg := GauntletConfig{ExpertTimeout: 100 * time.Millisecond}
	experts := []Expert{
		&stubExpert{name: domain.ExpertSourceMatcher, verdict: passVerdict(domain.ExpertSourceMatcher, 0.9)},
		&stubExpert{name: domain.ExpertHallucinationHunter, verdict: passVerdict(domain.ExpertHallucinationHunter, 0.9), delay: 5 * time.Second},
		&stubExpert{name: domain.ExpertLogicExpert, verdict: passVerdict(domain.ExpertLogicExpert, 0.9)},
	}
	g := NewGauntletWithExperts(experts, cfg, nil)

	start := time.Now()
	d := g.Evaluate(context.Background(), candidate("claim"), EvaluationInput{})
	elapsed := time.Since(start)

	if elapsed > cfg.ExpertTimeout+500*time.Millisecond {
		t.Errorf("evaluation took %v, should complete near the %v timeout", elapsed, cfg.ExpertTimeout)
	}

	var hh *domain.Verdict
	for i := range d.Verdicts {
		if d.Verdicts[i].Expert == domain.ExpertHallucinationHunter {
			hh = &d.Verdicts[i]
		}
	}
	if hh == nil {
		t.Fatal("missing verdict for the hung expert")
	}
	if hh.Pass || hh.Confidence != 0 {
		t.Errorf("hung expert must yield fail/0, got %+v", hh)
	}
}

func TestGauntlet_MergeRecommendationPropagates(t *testing.T) {
	g := stubGauntlet(t, GauntletConfig{},
		passVerdict(domain.ExpertSourceMatcher, 0.9),
		passVerdict(domain.ExpertHallucinationHunter, 0.9),
		domain.Verdict{Expert: domain.ExpertLogicExpert, Pass: false, Confidence: 0.9, Action: domain.ActionMerge, RelatedNode: 2},
	)

	d := g.Evaluate(context.Background(), candidate("claim"), EvaluationInput{})
	if d.Accepted {
		t.Error("merge candidates are not inserted as new nodes")
	}
	if d.Action != domain.ActionMerge || d.MergeTarget != 2 {
		t.Errorf("merge recommendation lost: action=%q target=%d", d.Action, d.MergeTarget)
	}
}

func TestGauntlet_RealExpertsEndToEnd(t *testing.T) {
	mock := llm.NewMockClient()
	g := NewGauntlet(mock, GauntletConfig{}, nil)

	d := g.Evaluate(context.Background(), candidate("the governor serves four years"), EvaluationInput{Context: testChunks})
	if !d.Accepted {
		t.Fatalf("default mock responses should pass the gauntlet: %+v", d)
	}
	if d.Score < DefaultAcceptThreshold {
		t.Errorf("score %v below threshold", d.Score)
	}
	if g.Degraded() {
		t.Error("healthy run must not report degradation")
	}
}

func TestGauntlet_ThresholdBoundary(t *testing.T) {
	// Two strong passes can clear the threshold without the third.
	g := stubGauntlet(t, GauntletConfig{},
		passVerdict(domain.ExpertSourceMatcher, 1.0),
		passVerdict(domain.ExpertHallucinationHunter, 1.0),
		domain.Verdict{Expert: domain.ExpertLogicExpert, Pass: false, Confidence: 0.2, Action: domain.ActionDiscard, RelatedNode: -1},
	)
	d := g.Evaluate(context.Background(), candidate("claim"), EvaluationInput{})
	if !d.Accepted {
		t.Errorf("0.7 should clear the default threshold, got %+v", d)
	}
}
