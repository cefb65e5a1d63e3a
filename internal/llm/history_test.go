package llm

import (
	"fmt"
	"testing"
)

func TestHistoryCapsAtCapacity(t *testing.T) {
	h := NewHistory(4)
	for i := 0; i < 7; i++ {
		h.Append(Message{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
	}
	if h.Len() != 4 || h.Cap() != 4 {
		t.Fatalf("expected 4/4, got %d/%d", h.Len(), h.Cap())
	}
	got := h.Messages()
	for i, want := range []string{"m3", "m4", "m5", "m6"} {
		if got[i].Content != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got[i].Content)
		}
	}
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 6; i++ {
		h.Append(Message{Role: RoleUser, Content: "q"}, Message{Role: RoleAssistant, Content: "a"})
	}
	if h.Len() != DefaultHistoryMessages {
		t.Fatalf("expected %d messages, got %d", DefaultHistoryMessages, h.Len())
	}
	if h.Messages()[0].Role != RoleUser {
		t.Fatalf("expected exchanges to stay aligned, got %s first", h.Messages()[0].Role)
	}
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory(2)
	h.Append(Message{Role: RoleUser, Content: "hello"})
	h.Reset()
	if h.Len() != 0 || len(h.Messages()) != 0 {
		t.Fatalf("expected empty history after reset")
	}
	h.Append(Message{Role: RoleUser, Content: "again"})
	if h.Messages()[0].Content != "again" {
		t.Fatalf("unexpected content after reset: %+v", h.Messages())
	}
}

func TestHistoryMessagesIsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Append(Message{Role: RoleUser, Content: "first draft"})
	msgs := h.Messages()
	msgs[0].Content = "changed"
	if h.Messages()[0].Content != "first draft" {
		t.Fatalf("history mutated through returned slice")
	}
}
