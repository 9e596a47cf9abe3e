package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verigraph/verigraph/internal/domain"
)

const (
	// DefaultAcceptThreshold sits above the combined weight of the two
	// secondary experts (0.6), so a claim with zero source support can
	// never be accepted no matter how confident they are.
	DefaultAcceptThreshold = 0.65

	DefaultExpertTimeout = 5 * time.Second
)

// Weights are the per-expert voting weights. They should sum to 1.
type Weights struct {
	SourceMatcher       float64
	HallucinationHunter float64
	LogicExpert         float64
}

// DefaultWeights favor source support over the secondary checks.
var DefaultWeights = Weights{
	SourceMatcher:       0.4,
	HallucinationHunter: 0.3,
	LogicExpert:         0.3,
}

func (w Weights) forExpert(name string) float64 {
	switch name {
	case domain.ExpertSourceMatcher:
		return w.SourceMatcher
	case domain.ExpertHallucinationHunter:
		return w.HallucinationHunter
	case domain.ExpertLogicExpert:
		return w.LogicExpert
	}
	return 0
}

type GauntletConfig struct {
	Weights                Weights
	AcceptThreshold        float64
	ExpertTimeout          time.Duration
	MaxConsecutiveFailures int
}

func (c GauntletConfig) withDefaults() GauntletConfig {
	zero := Weights{}
	if c.Weights == zero {
		c.Weights = DefaultWeights
	}
	if c.AcceptThreshold <= 0 {
		c.AcceptThreshold = DefaultAcceptThreshold
	}
	if c.ExpertTimeout <= 0 {
		c.ExpertTimeout = DefaultExpertTimeout
	}
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	return c
}

type gauntletMember struct {
	expert Expert
	health *expertHealth
}

// Gauntlet runs every candidate thought past the three experts
// concurrently and combines their verdicts into one decision. A gauntlet
// carries per-query expert health, so construct a fresh one per query.
type Gauntlet struct {
	members []gauntletMember
	cfg     GauntletConfig
	logger  *zap.Logger
}

func NewGauntlet(client domain.InferenceClient, cfg GauntletConfig, logger *zap.Logger) *Gauntlet {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	smHealth := newExpertHealth(cfg.MaxConsecutiveFailures)
	hhHealth := newExpertHealth(cfg.MaxConsecutiveFailures)
	leHealth := newExpertHealth(cfg.MaxConsecutiveFailures)

	return &Gauntlet{
		members: []gauntletMember{
			{expert: NewSourceMatcher(client, smHealth), health: smHealth},
			{expert: NewHallucinationHunter(client, hhHealth), health: hhHealth},
			{expert: NewLogicExpert(client, leHealth), health: leHealth},
		},
		cfg:    cfg,
		logger: logger,
	}
}

// NewGauntletWithExperts builds a gauntlet over caller-supplied experts.
func NewGauntletWithExperts(experts []Expert, cfg GauntletConfig, logger *zap.Logger) *Gauntlet {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	members := make([]gauntletMember, len(experts))
	for i, e := range experts {
		members[i] = gauntletMember{expert: e, health: newExpertHealth(cfg.MaxConsecutiveFailures)}
	}
	return &Gauntlet{members: members, cfg: cfg, logger: logger}
}

// Evaluate runs one candidate past all experts in parallel and returns
// the combined decision. A panicking or hung expert is converted into a
// failing verdict at its timeout; Evaluate itself never blocks past
// ExpertTimeout by more than scheduling slack.
func (g *Gauntlet) Evaluate(ctx context.Context, t domain.Thought, input EvaluationInput) domain.GauntletDecision {
	verdicts := make([]domain.Verdict, len(g.members))

	var wg sync.WaitGroup
	for i, m := range g.members {
		wg.Add(1)
		go func(i int, m gauntletMember) {
			defer wg.Done()
			verdicts[i] = g.evaluateOne(ctx, m, t, input)
		}(i, m)
	}
	wg.Wait()

	return g.decide(t, verdicts)
}

func (g *Gauntlet) evaluateOne(ctx context.Context, m gauntletMember, t domain.Thought, input EvaluationInput) domain.Verdict {
	ectx, cancel := context.WithTimeout(ctx, g.cfg.ExpertTimeout)
	defer cancel()

	done := make(chan domain.Verdict, 1)
	go func() {
		done <- m.expert.Evaluate(ectx, t, input)
	}()

	select {
	case v := <-done:
		return v
	case <-ectx.Done():
		m.health.recordFailure()
		g.logger.Warn("expert evaluation timed out",
			zap.String("expert", m.expert.Name()),
			zap.Duration("timeout", g.cfg.ExpertTimeout))
		return failVerdict(m.expert.Name(), "evaluation timed out")
	}
}

func (g *Gauntlet) decide(t domain.Thought, verdicts []domain.Verdict) domain.GauntletDecision {
	var score float64
	var logic *domain.Verdict
	var reasons []string

	for i := range verdicts {
		v := &verdicts[i]
		if v.Pass {
			score += g.cfg.Weights.forExpert(v.Expert) * v.Confidence
		}
		if v.Action != "" {
			logic = v
		}
		status := "fail"
		if v.Pass {
			status = "pass"
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s (%.2f) %s", v.Expert, status, v.Confidence, v.Rationale))
	}

	decision := domain.GauntletDecision{
		Score:       score,
		Action:      domain.ActionDiscard,
		MergeTarget: -1,
		Verdicts:    verdicts,
		Rationale:   strings.Join(reasons, " | "),
	}

	if logic != nil && logic.Action == domain.ActionMerge && logic.RelatedNode >= 0 {
		decision.Action = domain.ActionMerge
		decision.MergeTarget = logic.RelatedNode
	} else if score >= g.cfg.AcceptThreshold {
		decision.Accepted = true
		decision.Action = domain.ActionKeep
	}

	g.logger.Debug("gauntlet decision",
		zap.String("claim", t.Claim),
		zap.Float64("score", score),
		zap.Bool("accepted", decision.Accepted),
		zap.String("action", string(decision.Action)))

	return decision
}

// Degraded reports whether any expert has become unavailable during this
// query.
func (g *Gauntlet) Degraded() bool {
	for _, m := range g.members {
		if !m.health.available() {
			return true
		}
	}
	return false
}

// AllUnavailable reports whether every expert has tripped, meaning no
// verification coverage remains for this query.
func (g *Gauntlet) AllUnavailable() bool {
	for _, m := range g.members {
		if m.health.available() {
			return false
		}
	}
	return len(g.members) > 0
}
