package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/verigraph/verigraph/internal/domain"
	"github.com/verigraph/verigraph/internal/llm"
	"github.com/verigraph/verigraph/internal/retrieval"
	"github.com/verigraph/verigraph/internal/service"
)

func testEngine() *service.Engine {
	mock := llm.NewMockClient()
	mock.GenerateThoughtsResponse = []domain.GeneratedThought{
		{Claim: "The governor serves a four-year term.", ChunkIDs: []int{0}},
	}
	retriever := retrieval.NewStaticRetriever([]domain.ContextChunk{
		{Text: "The governor serves a four-year term.", SourceID: "Governor_of_X", Score: 0.9},
	})
	cfg := service.EngineConfig{MaxPaths: 1, MaxDepth: 1}
	return service.NewEngine(retriever, mock, cfg, nil)
}

func TestAnswerHandler_ReturnsResult(t *testing.T) {
	h := NewAnswerHandler(testEngine())

	req := httptest.NewRequest(http.MethodPost, "/v1/answer", strings.NewReader(`{"query":"How long does the governor serve?"}`))
	w := httptest.NewRecorder()
	h.Answer(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var result domain.QueryResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Answer == "" {
		t.Error("expected a non-empty answer")
	}
	if result.NodesExplored != 1 {
		t.Errorf("nodes_explored = %d, want 1", result.NodesExplored)
	}
}

func TestAnswerHandler_RejectsBadRequests(t *testing.T) {
	h := NewAnswerHandler(testEngine())

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"query":`},
		{"missing query", `{}`},
		{"blank query", `{"query":"   "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/answer", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			h.Answer(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestStatusHandler_ReportsConfiguration(t *testing.T) {
	cfg := service.DefaultEngineConfig()
	cfg.Gauntlet = service.GauntletConfig{
		Weights:         service.DefaultWeights,
		AcceptThreshold: service.DefaultAcceptThreshold,
		ExpertTimeout:   service.DefaultExpertTimeout,
	}
	h := NewStatusHandler("mock", "http://localhost:8000/query/search", cfg)

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	w := httptest.NewRecorder()
	h.Status(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["provider"] != "mock" {
		t.Errorf("provider = %v", body["provider"])
	}
	engine, ok := body["engine"].(map[string]any)
	if !ok {
		t.Fatal("missing engine section")
	}
	if engine["accept_threshold"] != service.DefaultAcceptThreshold {
		t.Errorf("accept_threshold = %v", engine["accept_threshold"])
	}
}
