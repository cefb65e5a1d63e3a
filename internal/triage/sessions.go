package triage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wolfman30/medtriage-assistant/internal/observability/metrics"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

const maxTranscriptTurns = 500

// Turn is one handled exchange.
type Turn struct {
	SessionID         string    `json:"session_id"`
	UserMessage       string    `json:"user_message"`
	BotResponse       string    `json:"bot_response"`
	Intent            Intent    `json:"intent"`
	MatchedConditions []string  `json:"matched_conditions,omitempty"`
	At                time.Time `json:"at"`
}

// Transcript is everything a session said, handed to an Archiver when the
// session ends.
type Transcript struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Turns     []Turn    `json:"turns"`
}

// Archiver stores finished transcripts.
type Archiver interface {
	Archive(ctx context.Context, t Transcript) error
}

// ChatRecorder persists turns as they happen.
type ChatRecorder interface {
	Record(ctx context.Context, turn Turn) error
}

// HistoryResetter forgets the language-model history of a session.
type HistoryResetter interface {
	Reset(ctx context.Context, sessionID string) error
}

type session struct {
	mu        sync.Mutex
	state     *State
	startedAt time.Time
	lastSeen  time.Time
	turns     []Turn
	closed    bool
}

// Sessions owns one State per session id and serializes turns within a
// session. Different sessions are handled concurrently.
type Sessions struct {
	router   *Router
	idleTTL  time.Duration
	archiver Archiver
	recorder ChatRecorder
	history  HistoryResetter
	metrics  *metrics.TriageMetrics
	logger   *logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// SessionsOption customizes Sessions.
type SessionsOption func(*Sessions)

// WithIdleTTL prunes sessions idle for longer than ttl when new ones are
// created. Zero disables pruning.
func WithIdleTTL(ttl time.Duration) SessionsOption {
	return func(s *Sessions) { s.idleTTL = ttl }
}

func WithArchiver(a Archiver) SessionsOption {
	return func(s *Sessions) { s.archiver = a }
}

func WithRecorder(r ChatRecorder) SessionsOption {
	return func(s *Sessions) { s.recorder = r }
}

func WithHistory(h HistoryResetter) SessionsOption {
	return func(s *Sessions) { s.history = h }
}

func WithSessionMetrics(m *metrics.TriageMetrics) SessionsOption {
	return func(s *Sessions) { s.metrics = m }
}

func WithSessionClock(now func() time.Time) SessionsOption {
	return func(s *Sessions) { s.now = now }
}

func NewSessions(router *Router, logger *logging.Logger, opts ...SessionsOption) *Sessions {
	if router == nil {
		panic("triage: router required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Sessions{
		router:   router,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxSessionIDLen bounds caller-supplied session ids.
const MaxSessionIDLen = 100

// Create starts a session. An empty id gets a generated one.
func (s *Sessions) Create(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	if utf8.RuneCountInString(id) > MaxSessionIDLen {
		return "", ErrInvalidSessionID
	}
	s.mu.Lock()
	if _, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		return "", ErrSessionExists
	}
	expired := s.insertLocked(id)
	s.mu.Unlock()

	s.closeAll(ctx, expired)
	return id, nil
}

// Ensure returns id if the session exists and creates it otherwise. It fails
// only with ErrInvalidSessionID.
func (s *Sessions) Ensure(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		s.mu.Lock()
		_, ok := s.sessions[id]
		s.mu.Unlock()
		if ok {
			return id, nil
		}
	}
	created, err := s.Create(ctx, id)
	if errors.Is(err, ErrSessionExists) {
		// Lost a race with another Create for the same id.
		return id, nil
	}
	return created, err
}

// Get returns a copy of the session's state.
func (s *Sessions) Get(id string) (State, bool) {
	sess := s.lookup(id)
	if sess == nil {
		return State{}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return State{}, false
	}
	return sess.state.Clone(), true
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Reset clears the dialogue state and the model history of a session.
func (s *Sessions) Reset(ctx context.Context, id string) error {
	sess := s.lookup(id)
	if sess == nil {
		return ErrUnknownSession
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return ErrUnknownSession
	}
	sess.state.Reset()
	sess.lastSeen = s.now()
	sess.mu.Unlock()

	if s.history != nil {
		if err := s.history.Reset(ctx, id); err != nil {
			s.logger.Warn("history reset failed", "session_id", id, "error", err)
		}
	}
	return nil
}

// Destroy ends a session and archives its transcript.
func (s *Sessions) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	s.metrics.SetActiveSessions(n)

	s.closeAll(ctx, []*session{sess})
	return nil
}

// Shutdown ends every live session, archiving each transcript.
func (s *Sessions) Shutdown(ctx context.Context) int {
	s.mu.Lock()
	all := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	s.metrics.SetActiveSessions(0)

	s.closeAll(ctx, all)
	return len(all)
}

// Handle runs one turn for session id.
func (s *Sessions) Handle(ctx context.Context, id, text string) (Reply, error) {
	sess := s.lookup(id)
	if sess == nil {
		return Reply{}, ErrUnknownSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return Reply{}, ErrUnknownSession
	}

	reply := s.router.Process(ctx, sess.state, text)
	turn := Turn{
		SessionID:   id,
		UserMessage: text,
		BotResponse: reply.Text,
		Intent:      reply.Intent,
		At:          s.now().UTC(),
	}
	if reply.Analysis != nil && reply.Analysis.Found {
		turn.MatchedConditions = reply.Analysis.Names()
	}
	sess.lastSeen = turn.At
	if len(sess.turns) < maxTranscriptTurns {
		sess.turns = append(sess.turns, turn)
	}

	if s.recorder != nil && reply.Intent != IntentEmpty {
		if err := s.recorder.Record(ctx, turn); err != nil {
			s.logger.Warn("chat record failed", "session_id", id, "error", err)
		}
	}
	return reply, nil
}

func (s *Sessions) lookup(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// insertLocked adds a session and removes expired ones. The caller must hold
// s.mu; expired sessions are returned for archiving outside the lock.
func (s *Sessions) insertLocked(id string) []*session {
	now := s.now()
	var expired []*session
	if s.idleTTL > 0 {
		for key, sess := range s.sessions {
			if !sess.mu.TryLock() {
				continue
			}
			idle := now.Sub(sess.lastSeen) > s.idleTTL
			sess.mu.Unlock()
			if idle {
				delete(s.sessions, key)
				expired = append(expired, sess)
			}
		}
	}
	s.sessions[id] = &session{state: NewState(id), startedAt: now, lastSeen: now}
	s.metrics.SetActiveSessions(len(s.sessions))
	if len(expired) > 0 {
		s.logger.Info("pruned idle sessions", "count", len(expired))
	}
	return expired
}

// closeAll marks sessions closed, archives their transcripts and drops their
// model history.
func (s *Sessions) closeAll(ctx context.Context, sessions []*session) {
	for _, sess := range sessions {
		sess.mu.Lock()
		sess.closed = true
		t := Transcript{
			SessionID: sess.state.ID,
			StartedAt: sess.startedAt.UTC(),
			EndedAt:   s.now().UTC(),
			Turns:     sess.turns,
		}
		sess.mu.Unlock()

		if s.archiver != nil && len(t.Turns) > 0 {
			if err := s.archiver.Archive(ctx, t); err != nil {
				s.logger.Warn("transcript archive failed", "session_id", t.SessionID, "error", err)
			}
		}
		if s.history != nil {
			if err := s.history.Reset(ctx, t.SessionID); err != nil {
				s.logger.Warn("history reset failed", "session_id", t.SessionID, "error", err)
			}
		}
	}
}
