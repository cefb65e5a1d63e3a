// Package chatlog persists chat turns to the chat_history table.
package chatlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/wolfman30/medtriage-assistant/internal/triage"
)

const defaultRecentLimit = 50

// Record is one stored exchange.
type Record struct {
	ID                int64     `json:"id"`
	SessionID         string    `json:"session_id"`
	UserMessage       string    `json:"user_message"`
	BotResponse       string    `json:"bot_response"`
	Intent            string    `json:"intent"`
	MatchedConditions []string  `json:"matched_conditions"`
	CreatedAt         time.Time `json:"created_at"`
}

// Store writes and reads chat_history rows.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record implements triage.ChatRecorder.
func (s *Store) Record(ctx context.Context, turn triage.Turn) error {
	if s == nil || s.db == nil {
		return errors.New("chatlog: database not configured")
	}
	sessionID := strings.TrimSpace(turn.SessionID)
	if sessionID == "" {
		return errors.New("chatlog: session id required")
	}
	at := turn.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	conditions := turn.MatchedConditions
	if conditions == nil {
		conditions = []string{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_history (session_id, user_message, bot_response, intent, matched_conditions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sessionID, turn.UserMessage, turn.BotResponse, string(turn.Intent), pq.Array(conditions), at)
	if err != nil {
		return fmt.Errorf("chatlog: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest records for a session, oldest
// first.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("chatlog: database not configured")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, user_message, bot_response, intent, matched_conditions, created_at
		FROM (
			SELECT * FROM chat_history
			WHERE session_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("chatlog: query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.SessionID, &r.UserMessage, &r.BotResponse, &r.Intent, pq.Array(&r.MatchedConditions), &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("chatlog: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chatlog: rows: %w", err)
	}
	return out, nil
}

// Forget deletes a session's history.
func (s *Store) Forget(ctx context.Context, sessionID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("chatlog: database not configured")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_history WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("chatlog: delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

var _ triage.ChatRecorder = (*Store)(nil)
