package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/medtriage-assistant/internal/chatlog"
	"github.com/wolfman30/medtriage-assistant/internal/triage"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// HistoryReader returns persisted turns for a session.
type HistoryReader interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]chatlog.Record, error)
}

// SessionsHandler manages conversation sessions.
type SessionsHandler struct {
	sessions *triage.Sessions
	history  HistoryReader
	logger   *logging.Logger
}

// NewSessionsHandler builds the handler. history may be nil when chat
// persistence is off.
func NewSessionsHandler(sessions *triage.Sessions, history HistoryReader, logger *logging.Logger) *SessionsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionsHandler{sessions: sessions, history: history, logger: logger}
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

// Create handles POST /api/sessions.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := h.sessions.Create(r.Context(), req.SessionID)
	if errors.Is(err, triage.ErrSessionExists) {
		jsonError(w, "session already exists", http.StatusConflict)
		return
	}
	if errors.Is(err, triage.ErrInvalidSessionID) {
		jsonError(w, "session_id is too long", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("create session failed", "error", err)
		jsonError(w, "could not create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// Get handles GET /api/sessions/{sessionID}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, ok := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Reset handles POST /api/sessions/{sessionID}/reset.
func (h *SessionsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.sessions.Reset(r.Context(), id); err != nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "reset"})
}

// Destroy handles DELETE /api/sessions/{sessionID}.
func (h *SessionsHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/sessions/{sessionID}/history?limit=N.
func (h *SessionsHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		jsonError(w, "chat history not configured", http.StatusServiceUnavailable)
		return
	}
	id := chi.URLParam(r, "sessionID")
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	records, err := h.history.Recent(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("load chat history failed", "session_id", id, "error", err)
		jsonError(w, "could not load history", http.StatusServiceUnavailable)
		return
	}
	if records == nil {
		records = []chatlog.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "messages": records})
}
