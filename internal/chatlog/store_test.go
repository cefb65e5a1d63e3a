package chatlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/medtriage-assistant/internal/triage"
)

func TestStore_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO chat_history").
		WithArgs("sess-1", "I have a cough", "recommendation", "symptom_analysis", sqlmock.AnyArg(), at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewStore(db).Record(context.Background(), triage.Turn{
		SessionID:         "sess-1",
		UserMessage:       "I have a cough",
		BotResponse:       "recommendation",
		Intent:            triage.IntentSymptoms,
		MatchedConditions: []string{"Allergic Rhinitis"},
		At:                at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordRequiresSession(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = NewStore(db).Record(context.Background(), triage.Turn{UserMessage: "hi"})
	assert.Error(t, err)
}

func TestStore_RecordWrapsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO chat_history").WillReturnError(errors.New("db down"))
	err = NewStore(db).Record(context.Background(), triage.Turn{SessionID: "sess-1", At: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chatlog: insert")
}

func TestStore_Recent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "session_id", "user_message", "bot_response", "intent", "matched_conditions", "created_at"}).
		AddRow(int64(1), "sess-1", "I have a cough", "reply", "symptom_analysis", []byte(`{"Allergic Rhinitis",Asthma}`), at).
		AddRow(int64(2), "sess-1", "no", "ok", "confirmation", []byte(`{}`), at.Add(time.Minute))
	mock.ExpectQuery("SELECT id, session_id").
		WithArgs("sess-1", defaultRecentLimit).
		WillReturnRows(rows)

	records, err := NewStore(db).Recent(context.Background(), "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Allergic Rhinitis", "Asthma"}, records[0].MatchedConditions)
	assert.Empty(t, records[1].MatchedConditions)
	assert.Equal(t, "confirmation", records[1].Intent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Forget(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM chat_history").
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewStore(db).Forget(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
