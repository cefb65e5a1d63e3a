package handlers

import (
	"net/http"
	"strings"

	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
)

// KnowledgeHandler serves the read-only condition table.
type KnowledgeHandler struct {
	kb *knowledge.Base
}

func NewKnowledgeHandler(kb *knowledge.Base) *KnowledgeHandler {
	return &KnowledgeHandler{kb: kb}
}

// Conditions handles GET /api/conditions?specialist=&urgency=.
func (h *KnowledgeHandler) Conditions(w http.ResponseWriter, r *http.Request) {
	specialist := strings.TrimSpace(r.URL.Query().Get("specialist"))
	urgency := knowledge.Urgency(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("urgency"))))
	if urgency != "" && !urgency.Valid() {
		jsonError(w, "unknown urgency", http.StatusBadRequest)
		return
	}

	var conditions []knowledge.Condition
	switch {
	case specialist != "":
		conditions = h.kb.BySpecialist(specialist)
	case urgency != "":
		conditions = h.kb.ByUrgency(urgency)
	default:
		conditions = h.kb.Conditions()
	}
	if specialist != "" && urgency != "" {
		filtered := conditions[:0]
		for _, c := range conditions {
			if c.Urgency == urgency {
				filtered = append(filtered, c)
			}
		}
		conditions = filtered
	}
	if conditions == nil {
		conditions = []knowledge.Condition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conditions": conditions})
}

// Specialists handles GET /api/specialists.
func (h *KnowledgeHandler) Specialists(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"specialists": h.kb.Specialists()})
}
