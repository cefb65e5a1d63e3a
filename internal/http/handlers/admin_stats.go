package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
	"github.com/wolfman30/medtriage-assistant/internal/observability/metrics"
	"github.com/wolfman30/medtriage-assistant/internal/triage"
)

// AdminStatsHandler summarizes assistant activity for operators.
type AdminStatsHandler struct {
	gatherer prometheus.Gatherer
	sessions *triage.Sessions
	kb       *knowledge.Base
}

func NewAdminStatsHandler(gatherer prometheus.Gatherer, sessions *triage.Sessions, kb *knowledge.Base) *AdminStatsHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &AdminStatsHandler{gatherer: gatherer, sessions: sessions, kb: kb}
}

type statsResponse struct {
	LiveSessions int              `json:"live_sessions"`
	Conditions   int              `json:"conditions"`
	Specialists  []string         `json:"specialists"`
	Metrics      metrics.Snapshot `json:"metrics"`
}

// Stats handles GET /admin/stats.
func (h *AdminStatsHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	resp := statsResponse{Metrics: metrics.TakeSnapshot(h.gatherer)}
	if h.sessions != nil {
		resp.LiveSessions = h.sessions.Len()
	}
	if h.kb != nil {
		resp.Conditions = h.kb.Len()
		resp.Specialists = h.kb.Specialists()
	}
	writeJSON(w, http.StatusOK, resp)
}
