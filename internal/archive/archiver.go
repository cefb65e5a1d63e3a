package archive

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wolfman30/medtriage-assistant/internal/triage"
)

// TranscriptArchiver turns finished sessions into scrubbed records.
type TranscriptArchiver struct {
	store  *Store
	now    func() time.Time
	logger *slog.Logger
}

// NewTranscriptArchiver returns nil when store is disabled so callers can
// skip archiving entirely.
func NewTranscriptArchiver(store *Store, logger *slog.Logger) *TranscriptArchiver {
	if !store.Enabled() {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptArchiver{store: store, now: time.Now, logger: logger}
}

// Archive implements triage.Archiver.
func (a *TranscriptArchiver) Archive(ctx context.Context, t triage.Transcript) error {
	record := BuildRecord(t, a.now().UTC())
	return a.store.Put(ctx, record)
}

// BuildRecord converts a transcript, scrubbing emails and phone numbers.
func BuildRecord(t triage.Transcript, archivedAt time.Time) *TranscriptRecord {
	record := &TranscriptRecord{
		Version:    recordVersion,
		SessionID:  t.SessionID,
		StartedAt:  t.StartedAt,
		ArchivedAt: archivedAt,
		TurnCount:  len(t.Turns),
		Outcome:    outcomeOf(t.Turns),
	}
	end := t.EndedAt
	if end.IsZero() {
		end = archivedAt
	}
	if !t.StartedAt.IsZero() && end.After(t.StartedAt) {
		record.DurationSeconds = int(end.Sub(t.StartedAt).Seconds())
	}

	seenCondition := make(map[string]bool)
	seenIntent := make(map[string]bool)
	for _, turn := range t.Turns {
		intent := string(turn.Intent)
		if !seenIntent[intent] {
			seenIntent[intent] = true
			record.Intents = append(record.Intents, intent)
		}
		for _, c := range turn.MatchedConditions {
			if !seenCondition[c] {
				seenCondition[c] = true
				record.Conditions = append(record.Conditions, c)
			}
		}
		record.Messages = append(record.Messages,
			Message{Role: "user", Content: turn.UserMessage, Intent: intent, Timestamp: turn.At},
			Message{Role: "assistant", Content: turn.BotResponse, Timestamp: turn.At},
		)
	}
	ScrubMessages(record.Messages)
	return record
}

func outcomeOf(turns []triage.Turn) string {
	outcome := OutcomeUnresolved
	for _, turn := range turns {
		switch turn.Intent {
		case triage.IntentBookAppointment:
			if strings.Contains(turn.BotResponse, "APPOINTMENT CONFIRMED") {
				return OutcomeBooked
			}
		case triage.IntentSymptoms:
			if len(turn.MatchedConditions) > 0 {
				outcome = OutcomeTriaged
			}
		case triage.IntentGeneralQuery:
			if outcome == OutcomeUnresolved {
				outcome = OutcomeGeneral
			}
		}
	}
	return outcome
}

var _ triage.Archiver = (*TranscriptArchiver)(nil)
