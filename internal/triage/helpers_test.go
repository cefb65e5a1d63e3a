package triage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wolfman30/medtriage-assistant/internal/appointments"
	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
	"github.com/wolfman30/medtriage-assistant/internal/validate"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

var testClock = time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

type stubChatter struct {
	mu      sync.Mutex
	answer  string
	err     error
	calls   int
	session string
	prompt  string
}

func (c *stubChatter) Chat(_ context.Context, sessionID, _ string, systemPrompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.session = sessionID
	c.prompt = systemPrompt
	return c.answer, c.err
}

type brokenScheduler struct{}

var errStoreDown = errors.New("connection refused")

func (brokenScheduler) Book(context.Context, appointments.BookingInput) (string, error) {
	return "", errStoreDown
}

func (brokenScheduler) View(context.Context, string) (string, error) { return "", errStoreDown }

func (brokenScheduler) Cancel(context.Context, int64) (string, error) { return "", errStoreDown }

func (brokenScheduler) AvailableSlots(context.Context, string, string) (string, error) {
	return "", errStoreDown
}

func newScheduler() *appointments.Service {
	return appointments.NewService(appointments.NewMemoryStore(), logging.Discard(),
		appointments.WithValidator(validate.At(testClock)))
}

func newTestRouter(t *testing.T, scheduler Scheduler, chatter Chatter) *Router {
	t.Helper()
	if scheduler == nil {
		scheduler = newScheduler()
	}
	return NewRouter(knowledge.Default(), scheduler, chatter, logging.Discard(),
		WithClock(func() time.Time { return testClock }))
}
