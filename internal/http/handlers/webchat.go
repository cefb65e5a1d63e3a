package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/medtriage-assistant/internal/triage"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// WebChatHandler serves the chat over a WebSocket.
type WebChatHandler struct {
	sessions *triage.Sessions
	logger   *logging.Logger
}

// InboundFrame is what a client sends.
type InboundFrame struct {
	Type string `json:"type"` // "message" or "ping"
	Text string `json:"text"`
}

// OutboundFrame is what the server sends back.
type OutboundFrame struct {
	Type      string        `json:"type"` // "session", "message", "pong" or "error"
	Text      string        `json:"text,omitempty"`
	Intent    triage.Intent `json:"intent,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}

func NewWebChatHandler(sessions *triage.Sessions, logger *logging.Logger) *WebChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebChatHandler{sessions: sessions, logger: logger}
}

// HandleWebSocket handles GET /ws/chat?session=ID. The session is created
// when missing.
func (h *WebChatHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serve(conn, r)
	}).ServeHTTP(w, r)
}

func (h *WebChatHandler) serve(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	// Server read/write timeouts do not apply to a live socket.
	_ = conn.SetDeadline(time.Time{})
	id, err := h.sessions.Ensure(ctx, r.URL.Query().Get("session"))
	if err != nil {
		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Text: "invalid session id"})
		return
	}
	if err := websocket.JSON.Send(conn, OutboundFrame{Type: "session", SessionID: id}); err != nil {
		return
	}
	h.logger.Info("webchat: connection opened", "session_id", id)

	for {
		var in InboundFrame
		if err := websocket.JSON.Receive(conn, &in); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", id, "error", err)
			return
		}

		var out OutboundFrame
		switch in.Type {
		case "ping":
			out = OutboundFrame{Type: "pong"}
		case "message":
			if strings.TrimSpace(in.Text) == "" {
				continue
			}
			reply, err := h.sessions.Handle(ctx, id, in.Text)
			if errors.Is(err, triage.ErrUnknownSession) {
				_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Text: "session ended", SessionID: id})
				return
			}
			if reply.Err != nil {
				h.logger.Warn("webchat: turn degraded", "session_id", id, "error", reply.Err)
			}
			out = OutboundFrame{Type: "message", Text: reply.Text, Intent: reply.Intent, SessionID: id}
		default:
			continue
		}
		if err := websocket.JSON.Send(conn, out); err != nil {
			h.logger.Debug("webchat: send failed", "session_id", id, "error", err)
			return
		}
	}
}
