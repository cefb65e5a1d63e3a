package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(rate float64, burst int) (*RateLimiter, *time.Time) {
	now := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(rate, burst)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiterBurstAndRefill(t *testing.T) {
	rl, now := newTestLimiter(1, 2)

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("expected third request to be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatalf("clients must not share buckets")
	}

	*now = now.Add(1500 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Fatalf("expected a token after refill")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("expected only one refilled token")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl, now := newTestLimiter(1, 1)
	rl.Allow("a")
	*now = now.Add(limiterIdleAfter + time.Second)
	rl.Allow("b")

	if dropped := rl.Sweep(); dropped != 1 {
		t.Fatalf("expected 1 idle client dropped, got %d", dropped)
	}
	if _, ok := rl.clients["b"]; !ok {
		t.Fatalf("active client was swept")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(0, 1)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 2)
	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = "192.0.2.7"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}

func TestRateLimitMiddlewareIgnoresSourcePort(t *testing.T) {
	rl, _ := newTestLimiter(0.0001, 1)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var codes []int
	for _, addr := range []string{"203.0.113.7:40001", "203.0.113.7:40002", "203.0.113.7:40003"} {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	want := []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, codes)
		}
	}
}

func TestClientKey(t *testing.T) {
	cases := map[string]string{
		"203.0.113.7:40001": "203.0.113.7",
		"[2001:db8::1]:443": "2001:db8::1",
		"192.0.2.7":         "192.0.2.7",
	}
	for in, want := range cases {
		if got := clientKey(in); got != want {
			t.Fatalf("clientKey(%q) = %q, want %q", in, got, want)
		}
	}
}
