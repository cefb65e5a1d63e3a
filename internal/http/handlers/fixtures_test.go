package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/medtriage-assistant/internal/appointments"
	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
	"github.com/wolfman30/medtriage-assistant/internal/observability/metrics"
	"github.com/wolfman30/medtriage-assistant/internal/triage"
	"github.com/wolfman30/medtriage-assistant/internal/validate"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

var testNow = time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

type stubChatter struct {
	mu     sync.Mutex
	answer string
	calls  int
}

func (c *stubChatter) Chat(context.Context, string, string, string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.answer, nil
}

type fixture struct {
	kb       *knowledge.Base
	svc      *appointments.Service
	sessions *triage.Sessions
	chatter  *stubChatter
	registry *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewTriageMetrics(reg)
	kb := knowledge.Default()
	svc := appointments.NewService(appointments.NewMemoryStore(), logging.Discard(),
		appointments.WithValidator(validate.At(testNow)), appointments.WithMetrics(m))
	chatter := &stubChatter{answer: "Drink plenty of water."}
	router := triage.NewRouter(kb, svc, chatter, logging.Discard(),
		triage.WithClock(func() time.Time { return testNow }), triage.WithRouterMetrics(m))
	sessions := triage.NewSessions(router, logging.Discard(), triage.WithSessionMetrics(m))
	return &fixture{kb: kb, svc: svc, sessions: sessions, chatter: chatter, registry: reg}
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(raw)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
