// Package triage routes patient messages between symptom analysis,
// appointment commands and the language model, and tracks the one piece of
// per-session dialogue state that ties those turns together.
package triage

import (
	"maps"

	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
)

// Intent is the classification of a single turn.
type Intent string

const (
	IntentEmpty             Intent = "empty"
	IntentConfirmation      Intent = "confirmation"
	IntentViewAppointments  Intent = "view_appointments"
	IntentCancelAppointment Intent = "cancel_appointment"
	IntentCheckAvailability Intent = "check_availability"
	IntentBookAppointment   Intent = "book_appointment"
	IntentSymptoms          Intent = "symptom_analysis"
	IntentGeneralQuery      Intent = "general_query"
)

// State is the dialogue state of one session. AwaitingConfirmation implies
// SuggestedSpecialist is set.
type State struct {
	ID                   string            `json:"session_id"`
	AwaitingConfirmation bool              `json:"awaiting_confirmation"`
	SuggestedSpecialist  string            `json:"suggested_specialist,omitempty"`
	SuggestedUrgency     knowledge.Urgency `json:"suggested_urgency,omitempty"`
	BookingData          map[string]string `json:"booking_data"`
}

// NewState returns an idle state for session id.
func NewState(id string) *State {
	return &State{ID: id, BookingData: map[string]string{}}
}

// Reset returns the state to idle, keeping the session id.
func (s *State) Reset() {
	*s = State{ID: s.ID, BookingData: map[string]string{}}
}

// Clone returns a deep copy.
func (s *State) Clone() State {
	out := *s
	out.BookingData = maps.Clone(s.BookingData)
	if out.BookingData == nil {
		out.BookingData = map[string]string{}
	}
	return out
}

func (s *State) suggest(specialist string, urgency knowledge.Urgency, await bool) {
	s.SuggestedSpecialist = specialist
	s.SuggestedUrgency = urgency
	s.AwaitingConfirmation = await && specialist != ""
}
