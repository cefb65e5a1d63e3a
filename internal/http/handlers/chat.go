package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/medtriage-assistant/internal/symptoms"
	"github.com/wolfman30/medtriage-assistant/internal/triage"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// ChatHandler runs dialogue turns.
type ChatHandler struct {
	sessions *triage.Sessions
	logger   *logging.Logger
}

func NewChatHandler(sessions *triage.Sessions, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{sessions: sessions, logger: logger}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string             `json:"session_id"`
	Response  string             `json:"response"`
	Type      triage.Intent      `json:"type"`
	Analysis  *symptoms.Analysis `json:"analysis,omitempty"`
}

// Chat handles POST /api/chat. A missing or unknown session_id starts a new
// session.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
		return
	}

	id, err := h.sessions.Ensure(r.Context(), req.SessionID)
	if errors.Is(err, triage.ErrInvalidSessionID) {
		jsonError(w, "session_id is too long", http.StatusBadRequest)
		return
	}
	reply, err := h.sessions.Handle(r.Context(), id, req.Message)
	if errors.Is(err, triage.ErrUnknownSession) {
		jsonError(w, "session ended", http.StatusGone)
		return
	}
	if err != nil {
		h.logger.Error("chat turn failed", "session_id", id, "error", err)
		jsonError(w, "could not process message", http.StatusInternalServerError)
		return
	}
	if reply.Err != nil {
		h.logger.Warn("chat turn degraded", "session_id", id, "intent", reply.Intent, "error", reply.Err)
	}
	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: id,
		Response:  reply.Text,
		Type:      reply.Intent,
		Analysis:  reply.Analysis,
	})
}
