package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verigraph/verigraph/internal/domain"
)

// completer is the transport each provider supplies: one prompt in, one
// text completion out.
type completer interface {
	complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// structuredClient implements the typed inference methods on top of any
// completer. Providers embed it so Groq and Gemini share the prompt and
// parsing layer.
type structuredClient struct {
	c completer
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func formatChunks(chunks []domain.ContextChunk) string {
	var sb strings.Builder
	for i, ch := range chunks {
		sb.WriteString(fmt.Sprintf("[%d] (%s, score %.2f) %s\n", i, ch.SourceID, ch.Score, ch.Text))
	}
	if sb.Len() == 0 {
		return "(no excerpts retrieved)"
	}
	return sb.String()
}

func formatHistory(history []domain.HistoryEntry) string {
	var sb strings.Builder
	for _, h := range history {
		sb.WriteString(fmt.Sprintf("node %d (confidence %.2f): %s\n", h.NodeID, h.Confidence, h.Claim))
	}
	if sb.Len() == 0 {
		return "(this is the first thought)"
	}
	return sb.String()
}

func (s structuredClient) GenerateThoughts(ctx context.Context, query string, chunks []domain.ContextChunk, focus string, limit int) ([]domain.GeneratedThought, error) {
	focusLine := ""
	if focus != "" {
		focusLine = fmt.Sprintf("Focus this round on expanding: %s\n", focus)
	}

	prompt := fmt.Sprintf(generateThoughtsPrompt, query, focusLine, formatChunks(chunks), limit)

	result, err := s.c.complete(ctx, prompt, 0.3)
	if err != nil {
		return nil, fmt.Errorf("generate thoughts: %w", err)
	}
	result = stripFences(result)

	var thoughts []domain.GeneratedThought
	if err := json.Unmarshal([]byte(result), &thoughts); err != nil {
		return nil, fmt.Errorf("parse generated thoughts: %w (raw: %s)", err, result)
	}

	out := thoughts[:0]
	for _, t := range thoughts {
		if strings.TrimSpace(t.Claim) == "" {
			continue
		}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s structuredClient) AssessSupport(ctx context.Context, claim string, chunks []domain.ContextChunk) (*domain.SupportAssessment, error) {
	prompt := fmt.Sprintf(supportPrompt, formatChunks(chunks), claim)

	result, err := s.c.complete(ctx, prompt, 0)
	if err != nil {
		return nil, fmt.Errorf("assess support: %w", err)
	}
	result = stripFences(result)

	var assessment domain.SupportAssessment
	if err := json.Unmarshal([]byte(result), &assessment); err != nil {
		return nil, fmt.Errorf("parse support assessment: %w (raw: %s)", err, result)
	}

	assessment.Confidence = clamp01(assessment.Confidence)
	return &assessment, nil
}

func (s structuredClient) FindUnsupported(ctx context.Context, claim string, chunks []domain.ContextChunk) (*domain.HallucinationReport, error) {
	prompt := fmt.Sprintf(hallucinationPrompt, formatChunks(chunks), claim)

	result, err := s.c.complete(ctx, prompt, 0)
	if err != nil {
		return nil, fmt.Errorf("find unsupported claims: %w", err)
	}
	result = stripFences(result)

	var report domain.HallucinationReport
	if err := json.Unmarshal([]byte(result), &report); err != nil {
		return nil, fmt.Errorf("parse hallucination report: %w (raw: %s)", err, result)
	}

	report.Confidence = clamp01(report.Confidence)
	return &report, nil
}

func (s structuredClient) AssessCoherence(ctx context.Context, claim string, history []domain.HistoryEntry) (*domain.LogicAssessment, error) {
	prompt := fmt.Sprintf(coherencePrompt, formatHistory(history), claim)

	result, err := s.c.complete(ctx, prompt, 0.2)
	if err != nil {
		return nil, fmt.Errorf("assess coherence: %w", err)
	}
	result = stripFences(result)

	var raw struct {
		Coherence   float64 `json:"coherence"`
		Redundant   bool    `json:"redundant"`
		Action      string  `json:"action"`
		RelatedNode *int    `json:"related_node"`
		Remarks     string  `json:"remarks"`
	}
	if err := json.Unmarshal([]byte(result), &raw); err != nil {
		return nil, fmt.Errorf("parse logic assessment: %w (raw: %s)", err, result)
	}

	assessment := &domain.LogicAssessment{
		Coherence:   clamp01(raw.Coherence),
		Redundant:   raw.Redundant,
		Action:      domain.LogicAction(raw.Action),
		RelatedNode: -1,
		Remarks:     raw.Remarks,
	}
	if !domain.ValidLogicAction(raw.Action) {
		assessment.Action = domain.ActionKeep
	}
	if raw.RelatedNode != nil {
		assessment.RelatedNode = *raw.RelatedNode
	}
	return assessment, nil
}

func (s structuredClient) FollowupQueries(ctx context.Context, query string, chunks []domain.ContextChunk) ([]string, error) {
	prompt := fmt.Sprintf(followupPrompt, query, formatChunks(chunks))

	result, err := s.c.complete(ctx, prompt, 0.3)
	if err != nil {
		return nil, fmt.Errorf("followup queries: %w", err)
	}
	result = stripFences(result)

	var raw struct {
		FollowupQueries []string `json:"followup_queries"`
	}
	if err := json.Unmarshal([]byte(result), &raw); err != nil {
		return nil, fmt.Errorf("parse followup queries: %w (raw: %s)", err, result)
	}

	var queries []string
	for _, q := range raw.FollowupQueries {
		if strings.TrimSpace(q) != "" {
			queries = append(queries, q)
		}
	}
	return queries, nil
}

func (s structuredClient) CheckRelevance(ctx context.Context, query string) (*domain.RelevanceResult, error) {
	prompt := fmt.Sprintf(relevancePrompt, query)

	result, err := s.c.complete(ctx, prompt, 0)
	if err != nil {
		return nil, fmt.Errorf("check relevance: %w", err)
	}
	result = stripFences(result)

	var relevance domain.RelevanceResult
	if err := json.Unmarshal([]byte(result), &relevance); err != nil {
		return nil, fmt.Errorf("parse relevance result: %w (raw: %s)", err, result)
	}
	return &relevance, nil
}

func (s structuredClient) Synthesize(ctx context.Context, query string, facts []domain.VerifiedFact) (string, error) {
	var sb strings.Builder
	for i, f := range facts {
		sb.WriteString(fmt.Sprintf("%d. %s (confidence %.2f, sources: %s)\n",
			i+1, f.Claim, f.Confidence, strings.Join(f.SourcePages, ", ")))
	}

	prompt := fmt.Sprintf(synthesisPrompt, query, sb.String())

	result, err := s.c.complete(ctx, prompt, 0.3)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	return strings.TrimSpace(result), nil
}
