package handlers

import (
	"net/http"

	"github.com/verigraph/verigraph/internal/buildconfig"
	"github.com/verigraph/verigraph/internal/service"
)

// StatusHandler reports the running configuration, so operators can see
// which provider and budgets a deployment answers with.
type StatusHandler struct {
	provider     string
	retrievalURL string
	cfg          service.EngineConfig
}

func NewStatusHandler(provider, retrievalURL string, cfg service.EngineConfig) *StatusHandler {
	return &StatusHandler{provider: provider, retrievalURL: retrievalURL, cfg: cfg}
}

// Status handles GET /v1/status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":       buildconfig.Version(),
		"commit":        buildconfig.Commit(),
		"provider":      h.provider,
		"retrieval_url": h.retrievalURL,
		"engine": map[string]any{
			"max_paths":               h.cfg.MaxPaths,
			"max_depth":               h.cfg.MaxDepth,
			"max_candidates_per_step": h.cfg.MaxCandidatesPerStep,
			"max_gauntlet_calls":      h.cfg.MaxGauntletCalls,
			"query_budget":            h.cfg.WallClockBudget.String(),
			"accept_threshold":        h.cfg.Gauntlet.AcceptThreshold,
			"expert_timeout":          h.cfg.Gauntlet.ExpertTimeout.String(),
		},
	})
}
