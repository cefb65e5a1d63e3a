// Package archive stores finished chat transcripts in S3.
package archive

import "time"

const recordVersion = "1.0"

// Outcome summarizes how a session ended.
const (
	OutcomeBooked     = "appointment_booked"
	OutcomeTriaged    = "symptoms_triaged"
	OutcomeGeneral    = "general_questions"
	OutcomeUnresolved = "unresolved"
)

// TranscriptRecord is the JSON document written per session.
type TranscriptRecord struct {
	Version         string    `json:"version"`
	SessionID       string    `json:"session_id"`
	StartedAt       time.Time `json:"started_at"`
	ArchivedAt      time.Time `json:"archived_at"`
	DurationSeconds int       `json:"duration_seconds"`
	TurnCount       int       `json:"turn_count"`
	Outcome         string    `json:"outcome"`
	Conditions      []string  `json:"conditions,omitempty"`
	Intents         []string  `json:"intents"`
	Messages        []Message `json:"messages"`
}

// Message is one side of a turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ManifestEntry is one JSONL line in the monthly manifest.
type ManifestEntry struct {
	SessionID  string   `json:"session_id"`
	S3Key      string   `json:"s3_key"`
	Outcome    string   `json:"outcome"`
	Conditions []string `json:"conditions,omitempty"`
	ArchivedAt string   `json:"archived_at"`
	TurnCount  int      `json:"turn_count"`
}
