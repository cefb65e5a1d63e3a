package triage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

type memoryArchiver struct {
	mu          sync.Mutex
	transcripts []Transcript
}

func (a *memoryArchiver) Archive(_ context.Context, t Transcript) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transcripts = append(a.transcripts, t)
	return nil
}

type memoryRecorder struct {
	mu    sync.Mutex
	turns []Turn
	err   error
}

func (r *memoryRecorder) Record(_ context.Context, turn Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, turn)
	return r.err
}

type historySpy struct {
	mu    sync.Mutex
	reset []string
}

func (h *historySpy) Reset(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reset = append(h.reset, id)
	return nil
}

func TestSessionsLifecycle(t *testing.T) {
	archiver := &memoryArchiver{}
	recorder := &memoryRecorder{err: errors.New("db down")}
	history := &historySpy{}
	sessions := NewSessions(newTestRouter(t, nil, nil), logging.Discard(),
		WithArchiver(archiver), WithRecorder(recorder), WithHistory(history))
	ctx := context.Background()

	id, err := sessions.Create(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	_, err = sessions.Create(ctx, id)
	assert.ErrorIs(t, err, ErrSessionExists)

	reply, err := sessions.Handle(ctx, id, "I have increased thirst and frequent urination")
	require.NoError(t, err)
	assert.Equal(t, IntentSymptoms, reply.Intent)

	state, ok := sessions.Get(id)
	require.True(t, ok)
	assert.True(t, state.AwaitingConfirmation)
	state.BookingData["name"] = "mutated"
	again, _ := sessions.Get(id)
	assert.Empty(t, again.BookingData, "Get must return a copy")

	require.NoError(t, sessions.Reset(ctx, id))
	state, _ = sessions.Get(id)
	assert.False(t, state.AwaitingConfirmation)
	assert.Empty(t, state.SuggestedSpecialist)
	assert.Equal(t, id, state.ID)

	require.Len(t, recorder.turns, 1, "recorder errors must not stop the turn")
	assert.Equal(t, []string{"Diabetes"}, recorder.turns[0].MatchedConditions)

	require.NoError(t, sessions.Destroy(ctx, id))
	_, ok = sessions.Get(id)
	assert.False(t, ok)
	assert.ErrorIs(t, sessions.Destroy(ctx, id), ErrUnknownSession)
	_, err = sessions.Handle(ctx, id, "hello")
	assert.ErrorIs(t, err, ErrUnknownSession)

	require.Len(t, archiver.transcripts, 1)
	assert.Equal(t, id, archiver.transcripts[0].SessionID)
	assert.Len(t, archiver.transcripts[0].Turns, 1)
	assert.Equal(t, []string{id, id}, history.reset)
}

func TestSessionsAreIndependent(t *testing.T) {
	sessions := NewSessions(newTestRouter(t, nil, nil), logging.Discard())
	ctx := context.Background()

	a, _ := sessions.Create(ctx, "a")
	b, _ := sessions.Create(ctx, "b")
	_, err := sessions.Handle(ctx, a, "I have increased thirst and frequent urination")
	require.NoError(t, err)

	stateA, _ := sessions.Get(a)
	stateB, _ := sessions.Get(b)
	assert.True(t, stateA.AwaitingConfirmation)
	assert.False(t, stateB.AwaitingConfirmation)
}

func TestSessionsSerializeTurns(t *testing.T) {
	recorder := &memoryRecorder{}
	sessions := NewSessions(newTestRouter(t, nil, nil), logging.Discard(), WithRecorder(recorder))
	ctx := context.Background()
	id, err := sessions.Ensure(ctx, "busy")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sessions.Handle(ctx, id, "I have increased thirst")
			_, _ = sessions.Handle(ctx, id, "no")
		}()
	}
	wg.Wait()
	assert.Len(t, recorder.turns, 40)
}

func TestSessionsPruneIdle(t *testing.T) {
	now := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	archiver := &memoryArchiver{}
	sessions := NewSessions(newTestRouter(t, nil, nil), logging.Discard(),
		WithIdleTTL(time.Hour),
		WithArchiver(archiver),
		WithSessionClock(func() time.Time { return now }))
	ctx := context.Background()

	old, _ := sessions.Create(ctx, "old")
	_, err := sessions.Handle(ctx, old, "I have a cough")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = sessions.Create(ctx, "new")
	require.NoError(t, err)

	_, ok := sessions.Get(old)
	assert.False(t, ok, "idle session should be pruned")
	assert.Equal(t, 1, sessions.Len())
	require.Len(t, archiver.transcripts, 1)
	assert.Equal(t, "old", archiver.transcripts[0].SessionID)
}

func TestEnsureReusesExistingSession(t *testing.T) {
	sessions := NewSessions(newTestRouter(t, nil, nil), logging.Discard())
	ctx := context.Background()

	id, err := sessions.Ensure(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	again, err := sessions.Ensure(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	custom, err := sessions.Ensure(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", custom)
	assert.Equal(t, 2, sessions.Len())
}

func TestSessionIDLengthIsBounded(t *testing.T) {
	sessions := NewSessions(newTestRouter(t, nil, nil), logging.Discard())
	ctx := context.Background()

	longest := strings.Repeat("a", MaxSessionIDLen)
	id, err := sessions.Create(ctx, longest)
	require.NoError(t, err)
	assert.Equal(t, longest, id)

	_, err = sessions.Create(ctx, longest+"b")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
	_, err = sessions.Ensure(ctx, longest+"b")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
	assert.Equal(t, 1, sessions.Len())
}

func TestSessionsShutdownArchivesEverything(t *testing.T) {
	archiver := &memoryArchiver{}
	history := &historySpy{}
	sessions := NewSessions(newTestRouter(t, nil, nil), logging.Discard(), WithArchiver(archiver), WithHistory(history))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := sessions.Create(ctx, id)
		require.NoError(t, err)
	}
	_, err := sessions.Handle(ctx, "a", "I have a headache")
	require.NoError(t, err)

	assert.Equal(t, 3, sessions.Shutdown(ctx))
	assert.Equal(t, 0, sessions.Len())
	require.Len(t, archiver.transcripts, 1, "only sessions with turns are archived")
	assert.Equal(t, "a", archiver.transcripts[0].SessionID)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, history.reset)

	_, err = sessions.Handle(ctx, "b", "hello")
	assert.ErrorIs(t, err, ErrUnknownSession)
}
