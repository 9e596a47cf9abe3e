package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verigraph/verigraph/internal/domain"
)

// ErrEmptyQuery is returned inside the result when the query is blank.
var ErrEmptyQuery = errors.New("query must not be empty")

// engineState labels the phase a query session is in. Transitions are
// linear per step: generating -> verifying -> linking, looping until a
// budget or the exploration plan is exhausted, then synthesizing.
type engineState string

const (
	stateInit         engineState = "init"
	stateGenerating   engineState = "generating"
	stateVerifying    engineState = "verifying"
	stateLinking      engineState = "linking"
	stateSynthesizing engineState = "synthesizing"
	stateDone         engineState = "done"
)

// EngineConfig bounds one query's exploration. Zero values fall back to
// the defaults.
type EngineConfig struct {
	RetrievalTopK      int
	FollowupTopK       int
	MaxFollowupQueries int

	MaxPaths             int
	MaxDepth             int
	MaxCandidatesPerStep int
	MaxGauntletCalls     int
	WallClockBudget      time.Duration

	// ExpertContextChunks caps how many of the highest-scoring chunks the
	// experts see per evaluation.
	ExpertContextChunks int

	MaxAnswerNodes int

	Gauntlet GauntletConfig
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RetrievalTopK:        20,
		FollowupTopK:         15,
		MaxFollowupQueries:   2,
		MaxPaths:             2,
		MaxDepth:             2,
		MaxCandidatesPerStep: 4,
		MaxGauntletCalls:     24,
		WallClockBudget:      60 * time.Second,
		ExpertContextChunks:  10,
		MaxAnswerNodes:       6,
	}
}

func (c EngineConfig) withDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.RetrievalTopK <= 0 {
		c.RetrievalTopK = d.RetrievalTopK
	}
	if c.FollowupTopK <= 0 {
		c.FollowupTopK = d.FollowupTopK
	}
	if c.MaxFollowupQueries <= 0 {
		c.MaxFollowupQueries = d.MaxFollowupQueries
	}
	if c.MaxPaths <= 0 {
		c.MaxPaths = d.MaxPaths
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MaxCandidatesPerStep <= 0 {
		c.MaxCandidatesPerStep = d.MaxCandidatesPerStep
	}
	if c.MaxGauntletCalls <= 0 {
		c.MaxGauntletCalls = d.MaxGauntletCalls
	}
	if c.WallClockBudget <= 0 {
		c.WallClockBudget = d.WallClockBudget
	}
	if c.ExpertContextChunks <= 0 {
		c.ExpertContextChunks = d.ExpertContextChunks
	}
	if c.MaxAnswerNodes <= 0 {
		c.MaxAnswerNodes = d.MaxAnswerNodes
	}
	return c
}

// Engine answers queries by generating candidate thoughts from retrieved
// wiki context, verifying each through the expert gauntlet, linking
// survivors into a thought graph, and synthesizing an answer from the
// accepted claims only. An Engine is stateless across queries and safe
// for concurrent use; all per-query state lives in the session.
type Engine struct {
	retriever domain.Retriever
	client    domain.InferenceClient
	cfg       EngineConfig
	logger    *zap.Logger
}

func NewEngine(retriever domain.Retriever, client domain.InferenceClient, cfg EngineConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		retriever: retriever,
		client:    client,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// session is the mutable state of one query. Owned by a single Answer
// call; the graph is mutated only between fan-out phases.
type session struct {
	id    string
	query string
	state engineState

	graph    *domain.Graph
	gauntlet *Gauntlet

	chunks      []domain.ContextChunk
	queriesMade []string

	gauntletCalls int
	logger        *zap.Logger
}

func (s *session) setState(next engineState) {
	s.logger.Debug("session state change",
		zap.String("session", s.id),
		zap.String("from", string(s.state)),
		zap.String("to", string(next)))
	s.state = next
}

// Answer resolves one query end to end. It always returns a result:
// evidence insufficiency becomes a refusal, infrastructure failure
// becomes a degraded or errored result, never a panic or a bare error.
func (e *Engine) Answer(ctx context.Context, query string) domain.QueryResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.QueryResult{
			Answer: domain.RefusalMessage,
			Graph:  domain.GraphExport{Nodes: []domain.NodeExport{}, Edges: []domain.Edge{}},
			Error:  ErrEmptyQuery.Error(),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.WallClockBudget)
	defer cancel()

	s := &session{
		id:       uuid.New().String(),
		query:    query,
		state:    stateInit,
		graph:    domain.NewGraph(),
		gauntlet: NewGauntlet(e.client, e.cfg.Gauntlet, e.logger),
		logger:   e.logger,
	}

	e.logger.Info("query started",
		zap.String("session", s.id),
		zap.String("query", query))

	e.gatherContext(ctx, s)

	if len(s.chunks) == 0 {
		return e.refuseWithoutEvidence(ctx, s)
	}

	e.explore(ctx, s)

	result := e.synthesize(ctx, s)

	s.setState(stateDone)
	e.logger.Info("query finished",
		zap.String("session", s.id),
		zap.Int("nodes", result.NodesExplored),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("degraded", result.Degraded))
	return result
}

// gatherContext runs the initial retrieval plus bounded follow-up
// retrievals, then dedupes chunks by text and orders them by score.
func (e *Engine) gatherContext(ctx context.Context, s *session) {
	s.chunks = e.retrieveInto(ctx, s, s.query, e.cfg.RetrievalTopK, nil)

	if len(s.chunks) > 0 && e.cfg.MaxFollowupQueries > 0 {
		followups, err := e.client.FollowupQueries(ctx, s.query, s.chunks)
		if err != nil {
			e.logger.Warn("follow-up query generation failed",
				zap.String("session", s.id), zap.Error(err))
		}
		if len(followups) > e.cfg.MaxFollowupQueries {
			followups = followups[:e.cfg.MaxFollowupQueries]
		}
		for _, fq := range followups {
			s.chunks = e.retrieveInto(ctx, s, fq, e.cfg.FollowupTopK, s.chunks)
		}
	}

	sort.SliceStable(s.chunks, func(i, j int) bool {
		return s.chunks[i].Score > s.chunks[j].Score
	})

	e.logger.Info("context gathered",
		zap.String("session", s.id),
		zap.Int("chunks", len(s.chunks)),
		zap.Strings("queries", s.queriesMade))
}

func (e *Engine) retrieveInto(ctx context.Context, s *session, query string, topK int, existing []domain.ContextChunk) []domain.ContextChunk {
	s.queriesMade = append(s.queriesMade, query)

	chunks, err := e.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		e.logger.Warn("retrieval failed",
			zap.String("session", s.id),
			zap.String("query", query),
			zap.Error(err))
		return existing
	}

	seen := make(map[string]bool, len(existing))
	for _, ch := range existing {
		seen[ch.Text] = true
	}
	out := existing
	for _, ch := range chunks {
		if strings.TrimSpace(ch.Text) == "" || seen[ch.Text] {
			continue
		}
		seen[ch.Text] = true
		out = append(out, ch)
	}
	return out
}

// refuseWithoutEvidence short-circuits when retrieval produced nothing.
// A best-effort relevance check distinguishes an off-corpus question from
// an on-topic one the wiki simply cannot answer.
func (e *Engine) refuseWithoutEvidence(ctx context.Context, s *session) domain.QueryResult {
	s.setState(stateSynthesizing)

	answer := domain.RefusalMessage
	if rel, err := e.client.CheckRelevance(ctx, s.query); err == nil && !rel.Relevant {
		answer = domain.OffTopicMessage
	}

	s.setState(stateDone)
	return domain.QueryResult{
		Query:           s.query,
		Answer:          answer,
		Confidence:      0,
		NodesExplored:   0,
		Sources:         []string{},
		Graph:           s.graph.Serialize(),
		QueriesMade:     s.queriesMade,
		ChunksRetrieved: 0,
	}
}

// explore runs the generate -> verify -> link loop over independent
// paths and bounded depth until budgets run out.
func (e *Engine) explore(ctx context.Context, s *session) {
	expertChunks := s.chunks
	if len(expertChunks) > e.cfg.ExpertContextChunks {
		expertChunks = expertChunks[:e.cfg.ExpertContextChunks]
	}

	for path := 0; path < e.cfg.MaxPaths; path++ {
		parent := -1
		focus := ""

		for depth := 0; depth < e.cfg.MaxDepth; depth++ {
			if e.budgetExhausted(ctx, s) {
				return
			}

			s.setState(stateGenerating)
			candidates, err := e.client.GenerateThoughts(ctx, s.query, s.chunks, focus, e.cfg.MaxCandidatesPerStep)
			if err != nil {
				e.logger.Warn("thought generation failed",
					zap.String("session", s.id),
					zap.Int("path", path),
					zap.Int("depth", depth),
					zap.Error(err))
				break
			}
			if len(candidates) == 0 {
				break
			}

			thoughts := make([]domain.Thought, 0, len(candidates))
			for _, c := range candidates {
				t := domain.NewCandidate(c.Claim, e.provenanceFor(s, c.ChunkIDs))
				t.ParentNode = parent
				thoughts = append(thoughts, t)
			}

			s.setState(stateVerifying)
			decisions := e.verifyStep(ctx, s, thoughts, expertChunks)

			s.setState(stateLinking)
			accepted := e.linkStep(s, thoughts, decisions)

			if s.gauntlet.AllUnavailable() {
				return
			}
			if len(accepted) == 0 {
				break
			}

			// Branch the next depth from the strongest node of this step.
			best := accepted[0]
			for _, id := range accepted[1:] {
				if n, ok := s.graph.Node(id); ok {
					if b, _ := s.graph.Node(best); n.Confidence > b.Confidence {
						best = id
					}
				}
			}
			parent = best
			if n, ok := s.graph.Node(best); ok {
				focus = n.Claim
			}
		}

		if e.budgetExhausted(ctx, s) || s.gauntlet.AllUnavailable() {
			return
		}
	}
}

func (e *Engine) budgetExhausted(ctx context.Context, s *session) bool {
	if ctx.Err() != nil {
		e.logger.Warn("wall-clock budget exhausted", zap.String("session", s.id))
		return true
	}
	if s.gauntletCalls >= e.cfg.MaxGauntletCalls {
		e.logger.Info("gauntlet call budget exhausted",
			zap.String("session", s.id),
			zap.Int("calls", s.gauntletCalls))
		return true
	}
	return false
}

// verifyStep evaluates all candidates of one step concurrently against a
// single history snapshot taken before any of them is judged, so
// same-step candidates cannot observe each other's outcomes.
func (e *Engine) verifyStep(ctx context.Context, s *session, thoughts []domain.Thought, expertChunks []domain.ContextChunk) []domain.GauntletDecision {
	history := s.graph.Snapshot()
	input := EvaluationInput{Context: expertChunks, History: history}

	decisions := make([]domain.GauntletDecision, len(thoughts))

	g, gctx := errgroup.WithContext(ctx)
	for i := range thoughts {
		i := i
		g.Go(func() error {
			decisions[i] = s.gauntlet.Evaluate(gctx, thoughts[i], input)
			return nil
		})
	}
	_ = g.Wait()

	s.gauntletCalls += len(thoughts)
	return decisions
}

// linkStep applies the decisions in candidate order: merge folds
// provenance into the named node, accept inserts the node and its edges,
// everything else is dropped. Returns the ids of nodes added this step.
func (e *Engine) linkStep(s *session, thoughts []domain.Thought, decisions []domain.GauntletDecision) []int {
	var added []int

	for i := range thoughts {
		t := thoughts[i]
		d := decisions[i]

		switch {
		case d.Action == domain.ActionMerge && d.MergeTarget >= 0:
			if err := s.graph.MergeProvenance(d.MergeTarget, t.Provenance); err != nil {
				e.logger.Warn("merge target invalid, dropping candidate",
					zap.String("session", s.id),
					zap.Int("target", d.MergeTarget),
					zap.Error(err))
			} else {
				e.logger.Debug("candidate merged",
					zap.String("session", s.id),
					zap.String("claim", t.Claim),
					zap.Int("target", d.MergeTarget))
			}

		case d.Accepted:
			for _, v := range d.Verdicts {
				if v.Expert == domain.ExpertSourceMatcher && len(v.SupportingChunks) > 0 {
					t.Provenance.Merge(e.provenanceFor(s, v.SupportingChunks))
				}
			}
			if err := t.Accept(d.Score); err != nil {
				continue
			}
			id := s.graph.AddNode(t)
			added = append(added, id)
			e.addEdges(s, id, t, d)

		default:
			e.logger.Debug("candidate rejected",
				zap.String("session", s.id),
				zap.String("claim", t.Claim),
				zap.Float64("score", d.Score))
		}
	}
	return added
}

// addEdges wires a freshly accepted node into the graph: a branch edge to
// its exploration parent and shared-source edges to earlier nodes citing
// the same wiki page.
func (e *Engine) addEdges(s *session, id int, t domain.Thought, d domain.GauntletDecision) {
	if t.ParentNode >= 0 && t.ParentNode != id {
		if err := s.graph.AddEdge(t.ParentNode, id, "explored from parent thought", d.Score); err != nil {
			e.logger.Warn("parent edge rejected", zap.String("session", s.id), zap.Error(err))
		}
	}

	for other := 0; other < id; other++ {
		if other == t.ParentNode {
			continue
		}
		node, ok := s.graph.Node(other)
		if !ok {
			continue
		}
		for _, page := range t.Provenance.SourcePages {
			if node.Provenance.HasPage(page) {
				if err := s.graph.AddEdge(other, id, "shares source "+page, 0.5); err != nil {
					e.logger.Warn("shared-source edge rejected", zap.String("session", s.id), zap.Error(err))
				}
				break
			}
		}
	}
}

// provenanceFor maps chunk indexes into the session chunk list onto the
// wiki pages they came from.
func (e *Engine) provenanceFor(s *session, chunkIDs []int) domain.Provenance {
	var prov domain.Provenance
	for _, id := range chunkIDs {
		if id < 0 || id >= len(s.chunks) {
			continue
		}
		prov.ChunkIDs = append(prov.ChunkIDs, id)
		page := s.chunks[id].SourceID
		if page != "" && !prov.HasPage(page) {
			prov.SourcePages = append(prov.SourcePages, page)
		}
	}
	return prov
}

// synthesize composes the final answer strictly from accepted claims.
func (e *Engine) synthesize(ctx context.Context, s *session) domain.QueryResult {
	s.setState(stateSynthesizing)

	result := domain.QueryResult{
		Query:           s.query,
		Sources:         []string{},
		Graph:           s.graph.Serialize(),
		QueriesMade:     s.queriesMade,
		ChunksRetrieved: len(s.chunks),
		Degraded:        s.gauntlet.Degraded(),
	}
	if s.gauntlet.AllUnavailable() {
		result.Error = "all verification experts became unavailable"
	}

	nodes := s.graph.AllNodes()
	result.NodesExplored = len(nodes)
	if len(nodes) == 0 {
		result.Answer = domain.RefusalMessage
		result.Confidence = 0
		return result
	}

	// Rank accepted nodes by gauntlet confidence and answer from the top.
	sorted := make([]domain.Thought, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if len(sorted) > e.cfg.MaxAnswerNodes {
		sorted = sorted[:e.cfg.MaxAnswerNodes]
	}

	facts := make([]domain.VerifiedFact, len(sorted))
	var confSum float64
	seenPage := make(map[string]bool)
	for i, n := range sorted {
		facts[i] = domain.VerifiedFact{
			Claim:       n.Claim,
			Confidence:  n.Confidence,
			SourcePages: n.Provenance.SourcePages,
		}
		confSum += n.Confidence
		for _, page := range n.Provenance.SourcePages {
			if !seenPage[page] {
				seenPage[page] = true
				result.Sources = append(result.Sources, page)
			}
		}
	}
	result.Confidence = confSum / float64(len(sorted))

	answer, err := e.client.Synthesize(ctx, s.query, facts)
	if err != nil || strings.TrimSpace(answer) == "" {
		if err != nil {
			e.logger.Warn("synthesis failed, falling back to claim list",
				zap.String("session", s.id), zap.Error(err))
		}
		answer = fallbackAnswer(facts)
	}
	result.Answer = answer
	return result
}

// fallbackAnswer joins verified claims deterministically when the
// inference backend cannot compose prose.
func fallbackAnswer(facts []domain.VerifiedFact) string {
	parts := make([]string, len(facts))
	for i, f := range facts {
		parts[i] = f.Claim
	}
	return fmt.Sprintf("Based on the wiki: %s", strings.Join(parts, " "))
}
