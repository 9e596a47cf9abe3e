package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/verigraph/verigraph/internal/service"
)

// AnswerHandler exposes the reasoning engine over HTTP.
type AnswerHandler struct {
	engine *service.Engine
}

func NewAnswerHandler(engine *service.Engine) *AnswerHandler {
	return &AnswerHandler{engine: engine}
}

type answerRequest struct {
	Query string `json:"query"`
}

// Answer handles POST /v1/answer.
func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result := h.engine.Answer(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
