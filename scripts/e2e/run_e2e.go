// Package main runs end-to-end scenarios against a running triage API.
//
// Each scenario opens its own session, drives the dialogue over HTTP and
// checks the replies and side effects (appointments, slots, admin stats).
//
// Usage:
//
//	API_BASE_URL=http://localhost:8080 ADMIN_JWT_SECRET=... go run scripts/e2e/run_e2e.go
//	API_BASE_URL=http://localhost:8080 go run scripts/e2e/run_e2e.go confirm-yes
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	apiBase    string
	adminToken string
	client     = &http.Client{Timeout: 60 * time.Second}
)

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...any) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

type chatReply struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Type      string `json:"type"`
}

func call(method, path string, body any, out any) (int, error) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, apiBase+path, r)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if adminToken != "" && strings.HasPrefix(path, "/admin/") {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func newSession() (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	status, err := call(http.MethodPost, "/api/sessions", nil, &out)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("create session returned %d", status)
	}
	return out.SessionID, nil
}

func say(sessionID, text string) (chatReply, error) {
	var out chatReply
	status, err := call(http.MethodPost, "/api/chat", map[string]string{"session_id": sessionID, "message": text}, &out)
	if err != nil {
		return out, err
	}
	if status != http.StatusOK {
		return out, fmt.Errorf("chat returned %d", status)
	}
	fmt.Printf("    > %s\n    < [%s] %s\n", text, out.Type, firstLine(out.Response))
	return out, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// testDate picks a weekday far enough out that reruns rarely collide.
func testDate(offsetDays int) string {
	return time.Now().AddDate(0, 0, 30+offsetDays).Format("2006-01-02")
}

func scenarioConfirmYes(t *T) {
	id, err := newSession()
	if err != nil {
		t.fatalf("session: %v", err)
		return
	}
	r, err := say(id, "I have increased thirst and frequent urination")
	if err != nil {
		t.fatalf("chat: %v", err)
		return
	}
	t.check("symptoms classified", r.Type == "symptom_analysis")
	t.check("endocrinologist suggested", containsAny(r.Response, "Endocrinologist"))

	r, err = say(id, "yes")
	if err != nil {
		t.fatalf("chat: %v", err)
		return
	}
	t.check("confirmation handled", r.Type == "confirmation")
	t.check("booking instructions name the specialist", containsAny(r.Response, "Endocrinologist"))
}

func scenarioConfirmNo(t *T) {
	id, err := newSession()
	if err != nil {
		t.fatalf("session: %v", err)
		return
	}
	if _, err := say(id, "I have wheezing and chest tightness"); err != nil {
		t.fatalf("chat: %v", err)
		return
	}
	r, err := say(id, "no")
	if err != nil {
		t.fatalf("chat: %v", err)
		return
	}
	t.check("decline acknowledged", containsAny(r.Response, "No problem"))
}

func scenarioHighUrgency(t *T) {
	id, err := newSession()
	if err != nil {
		t.fatalf("session: %v", err)
		return
	}
	r, err := say(id, "I have been feeling persistent sadness and loss of interest")
	if err != nil {
		t.fatalf("chat: %v", err)
		return
	}
	t.check("psychiatrist suggested", containsAny(r.Response, "Psychiatrist"))
	t.check("disclaimer attached", containsAny(r.Response, "DISCLAIMER"))

	var st struct {
		AwaitingConfirmation bool   `json:"awaiting_confirmation"`
		SuggestedSpecialist  string `json:"suggested_specialist"`
	}
	if _, err := call(http.MethodGet, "/api/sessions/"+id, nil, &st); err != nil {
		t.fatalf("session state: %v", err)
		return
	}
	t.check("awaiting confirmation", st.AwaitingConfirmation)
	t.check("suggestion stored", st.SuggestedSpecialist == "Psychiatrist")
}

func scenarioBookAndCancel(t *T) {
	id, err := newSession()
	if err != nil {
		t.fatalf("session: %v", err)
		return
	}
	date := testDate(1)
	r, err := say(id, fmt.Sprintf("Book appointment for Jane Tester on %s at 11:00", date))
	if err != nil {
		t.fatalf("chat: %v", err)
		return
	}
	t.check("booking routed", r.Type == "book_appointment")
	t.check("booking confirmed", containsAny(r.Response, "confirmed", "booked"))

	var slots struct {
		Slots []string `json:"slots"`
	}
	if _, err := call(http.MethodGet, "/api/appointments/slots?date="+date, nil, &slots); err != nil {
		t.fatalf("slots: %v", err)
		return
	}
	taken := true
	for _, s := range slots.Slots {
		if strings.HasPrefix(s, "11:00") {
			taken = false
		}
	}
	t.check("booked slot no longer offered", taken)

	var list struct {
		Appointments []struct {
			ID   int64  `json:"id"`
			Date string `json:"date"`
		} `json:"appointments"`
	}
	if _, err := call(http.MethodGet, "/api/appointments?patient=Jane+Tester", nil, &list); err != nil {
		t.fatalf("list: %v", err)
		return
	}
	var apptID int64
	for _, a := range list.Appointments {
		if a.Date == date {
			apptID = a.ID
		}
	}
	t.check("appointment listed", apptID != 0)
	if apptID == 0 {
		return
	}
	r, err = say(id, fmt.Sprintf("cancel appointment id %d", apptID))
	if err != nil {
		t.fatalf("chat: %v", err)
		return
	}
	t.check("cancellation acknowledged", containsAny(r.Response, "cancelled"))
}

func scenarioSlotConflict(t *T) {
	date := testDate(2)
	req := map[string]string{
		"name":       "Conflict Tester",
		"date":       date,
		"time":       "10:00",
		"specialist": "Cardiologist",
	}
	first, err := call(http.MethodPost, "/api/appointments/book", req, nil)
	if err != nil {
		t.fatalf("book: %v", err)
		return
	}
	req["name"] = "Second Tester"
	second, err := call(http.MethodPost, "/api/appointments/book", req, nil)
	if err != nil {
		t.fatalf("book: %v", err)
		return
	}
	t.check("first booking created", first == http.StatusCreated)
	t.check("second booking rejected", second == http.StatusConflict)
}

func scenarioValidation(t *T) {
	status, err := call(http.MethodPost, "/api/appointments/book", map[string]string{
		"name": "Past Tester",
		"date": "2001-01-01",
		"time": "10:00",
	}, nil)
	if err != nil {
		t.fatalf("book: %v", err)
		return
	}
	t.check("past date rejected", status == http.StatusBadRequest)
}

func scenarioAdminStats(t *T) {
	if adminToken == "" {
		fmt.Println("    SKIP: ADMIN_JWT_SECRET not set")
		return
	}
	var stats struct {
		LiveSessions int `json:"live_sessions"`
		Conditions   int `json:"conditions"`
	}
	status, err := call(http.MethodGet, "/admin/stats", nil, &stats)
	if err != nil {
		t.fatalf("stats: %v", err)
		return
	}
	t.check("stats authorized", status == http.StatusOK)
	t.check("knowledge base loaded", stats.Conditions > 0)
}

func signAdminToken(secret string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   "e2e",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if apiBase == "" {
		fmt.Fprintln(os.Stderr, "ERROR: API_BASE_URL required")
		os.Exit(1)
	}
	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		tok, err := signAdminToken(secret)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: sign admin token: %v\n", err)
			os.Exit(1)
		}
		adminToken = tok
	}

	scenarios := []scenario{
		{"confirm-yes", scenarioConfirmYes},
		{"confirm-no", scenarioConfirmNo},
		{"high-urgency", scenarioHighUrgency},
		{"book-and-cancel", scenarioBookAndCancel},
		{"slot-conflict", scenarioSlotConflict},
		{"validation", scenarioValidation},
		{"admin-stats", scenarioAdminStats},
	}

	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed, totalFailed := 0, 0
	results := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		if filter != "" && s.Name != filter {
			continue
		}
		fmt.Printf("\n========================================\n")
		fmt.Printf("SCENARIO: %s\n", s.Name)
		fmt.Printf("========================================\n")

		t := &T{name: s.Name}
		s.Fn(t)
		totalPassed += t.passed
		totalFailed += t.failed

		status := "✅"
		if t.failed > 0 {
			status = "❌"
		}
		results = append(results, fmt.Sprintf("  %s %s (%d passed, %d failed)", status, s.Name, t.passed, t.failed))
	}

	fmt.Printf("\n========================================\n")
	fmt.Println("SUMMARY")
	fmt.Printf("========================================\n")
	for _, r := range results {
		fmt.Println(r)
	}
	fmt.Printf("\nTotal: %d passed, %d failed\n", totalPassed, totalFailed)
	if totalFailed > 0 {
		fmt.Println("\n❌ SOME TESTS FAILED")
		os.Exit(1)
	}
	fmt.Println("\n✅ ALL TESTS PASSED")
}
