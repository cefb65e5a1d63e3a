package archive

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/medtriage-assistant/internal/triage"
)

func sampleTranscript() triage.Transcript {
	start := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	return triage.Transcript{
		SessionID: "sess-9",
		StartedAt: start,
		EndedAt:   start.Add(5 * time.Minute),
		Turns: []triage.Turn{
			{Intent: triage.IntentSymptoms, UserMessage: "I have increased thirst", BotResponse: "See an Endocrinologist", MatchedConditions: []string{"Diabetes"}, At: start},
			{Intent: triage.IntentConfirmation, UserMessage: "yes", BotResponse: "Great!", At: start.Add(time.Minute)},
			{Intent: triage.IntentBookAppointment, UserMessage: "Book appointment for John Doe on 2025-12-25 at 10:00, call 330-333-2654", BotResponse: "✅ APPOINTMENT CONFIRMED!", At: start.Add(2 * time.Minute)},
		},
	}
}

func TestBuildRecord(t *testing.T) {
	archivedAt := time.Date(2025, 12, 1, 10, 10, 0, 0, time.UTC)
	record := BuildRecord(sampleTranscript(), archivedAt)

	assert.Equal(t, OutcomeBooked, record.Outcome)
	assert.Equal(t, 300, record.DurationSeconds)
	assert.Equal(t, 3, record.TurnCount)
	assert.Equal(t, []string{"Diabetes"}, record.Conditions)
	assert.Equal(t, []string{"symptom_analysis", "confirmation", "book_appointment"}, record.Intents)
	require.Len(t, record.Messages, 6)
	assert.NotContains(t, record.Messages[4].Content, "333-2654")
	assert.Equal(t, "assistant", record.Messages[5].Role)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeUnresolved, outcomeOf(nil))
	assert.Equal(t, OutcomeGeneral, outcomeOf([]triage.Turn{{Intent: triage.IntentGeneralQuery}}))
	assert.Equal(t, OutcomeTriaged, outcomeOf([]triage.Turn{
		{Intent: triage.IntentGeneralQuery},
		{Intent: triage.IntentSymptoms, MatchedConditions: []string{"Asthma"}},
	}))
	assert.Equal(t, OutcomeUnresolved, outcomeOf([]triage.Turn{
		{Intent: triage.IntentBookAppointment, BotResponse: "To book an appointment, please provide:"},
	}))
}

func TestTranscriptArchiver(t *testing.T) {
	mock := newMockS3()
	archiver := NewTranscriptArchiver(NewStore(mock, "bucket", nil), nil)
	require.NotNil(t, archiver)
	archiver.now = func() time.Time { return time.Date(2025, 12, 1, 10, 10, 0, 0, time.UTC) }

	require.NoError(t, archiver.Archive(context.Background(), sampleTranscript()))
	require.Len(t, mock.putCalls, 2)
	assert.Equal(t, "transcripts/v1/by-date/2025/12/01/sess-9.json", mock.putCalls[0].key)

	var decoded TranscriptRecord
	require.NoError(t, json.Unmarshal(mock.putCalls[0].body, &decoded))
	assert.Equal(t, OutcomeBooked, decoded.Outcome)
}
