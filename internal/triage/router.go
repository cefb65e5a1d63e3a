package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/medtriage-assistant/internal/appointments"
	"github.com/wolfman30/medtriage-assistant/internal/knowledge"
	"github.com/wolfman30/medtriage-assistant/internal/observability/metrics"
	"github.com/wolfman30/medtriage-assistant/internal/symptoms"
	"github.com/wolfman30/medtriage-assistant/internal/validate"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// Scheduler executes appointment commands and renders their outcome.
// Validation problems come back as text; errors mean the store failed.
type Scheduler interface {
	Book(ctx context.Context, in appointments.BookingInput) (string, error)
	View(ctx context.Context, patientName string) (string, error)
	Cancel(ctx context.Context, id int64) (string, error)
	AvailableSlots(ctx context.Context, date, specialist string) (string, error)
}

// Chatter answers free-form questions.
type Chatter interface {
	Chat(ctx context.Context, sessionID, userMessage, systemPrompt string) (string, error)
}

// Reply is the outcome of one turn. Err is informational: the text is always
// safe to show the patient.
type Reply struct {
	Text     string             `json:"response"`
	Intent   Intent             `json:"type"`
	Analysis *symptoms.Analysis `json:"analysis,omitempty"`
	Err      error              `json:"-"`
}

const (
	emptyInputText     = "I didn't catch that. Could you please say that again?"
	repromptText       = "I didn't understand. Would you like to book an appointment? Please say 'yes' or 'no'."
	declineText        = "No problem! Feel free to ask any other questions or book an appointment whenever you're ready."
	cancelHintText     = "Please provide the appointment ID to cancel. Example: 'cancel appointment id 5'"
	storeApologyText   = "I'm sorry, I couldn't reach the appointment system right now. Please try again in a moment."
	modelApologyText   = "I apologize, but the medical knowledge system is not available right now. Please try again later."
	exampleLeadTimeDay = 7
)

var (
	viewKeywords         = []string{"view appointment", "show appointment", "my appointment"}
	cancelKeywords       = []string{"cancel appointment"}
	availabilityKeywords = []string{"available slot", "available time", "check availability"}
	bookKeywords         = []string{"book appointment", "schedule appointment"}
	symptomKeywords      = []string{
		"symptom", "pain", "ache", "feeling", "have", "experiencing", "having", "hurt",
		"sick", "suffering", "dizzy", "nausea", "fever", "cough", "headache", "tired", "fatigue",
	}
	affirmativeTokens = []string{"yes", "sure", "okay", "ok", "please", "book", "schedule", "yeah", "yep"}
	negativeTokens    = []string{"no", "not now", "later", "nope", "nah"}
)

// Router classifies turns and drives the confirmation sub-dialogue. It keeps
// no per-session data of its own; callers serialize turns per State.
type Router struct {
	matcher     *symptoms.Matcher
	specialists []string
	scheduler   Scheduler
	chatter     Chatter
	extractor   Extractor
	prompt      string
	metrics     *metrics.TriageMetrics
	logger      *logging.Logger
	now         func() time.Time
}

// RouterOption customizes a Router.
type RouterOption func(*Router)

func WithExtractor(e Extractor) RouterOption {
	return func(r *Router) { r.extractor = e }
}

func WithRouterMetrics(m *metrics.TriageMetrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// WithClock fixes the clock used for example dates in hints.
func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) { r.now = now }
}

// WithSystemPrompt replaces the prompt derived from the knowledge base.
func WithSystemPrompt(prompt string) RouterOption {
	return func(r *Router) { r.prompt = prompt }
}

// NewRouter builds a Router over kb. A nil chatter answers general queries
// with an apology.
func NewRouter(kb *knowledge.Base, scheduler Scheduler, chatter Chatter, logger *logging.Logger, opts ...RouterOption) *Router {
	if kb == nil {
		kb = knowledge.Default()
	}
	if scheduler == nil {
		panic("triage: scheduler required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &Router{
		matcher:     symptoms.NewMatcher(kb),
		specialists: specialistsInOrder(kb),
		scheduler:   scheduler,
		chatter:     chatter,
		extractor:   RegexExtractor{},
		prompt:      SystemPrompt(kb),
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Matcher exposes the symptom matcher the router scores with.
func (r *Router) Matcher() *symptoms.Matcher { return r.matcher }

// Process handles one turn against st. It never returns an error; failures
// of external services become apology text and are reported in Reply.Err.
func (r *Router) Process(ctx context.Context, st *State, input string) Reply {
	reply := r.process(ctx, st, input)
	r.metrics.ObserveTurn(string(reply.Intent))
	return reply
}

func (r *Router) process(ctx context.Context, st *State, input string) Reply {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" {
		return Reply{Text: emptyInputText, Intent: IntentEmpty}
	}
	if st.AwaitingConfirmation {
		return r.confirm(st, lower)
	}

	switch {
	case containsAny(lower, viewKeywords):
		return r.view(ctx, input)
	case containsAny(lower, cancelKeywords):
		return r.cancel(ctx, input)
	case containsAny(lower, availabilityKeywords):
		return r.availability(ctx, input)
	case containsAny(lower, bookKeywords):
		return r.book(ctx, st, input)
	case containsAny(lower, symptomKeywords):
		return r.analyze(st, input)
	default:
		return r.ask(ctx, st, input)
	}
}

func (r *Router) confirm(st *State, lower string) Reply {
	switch {
	case containsAny(lower, affirmativeTokens):
		st.AwaitingConfirmation = false
		r.metrics.ObserveConfirmation("yes")
		return Reply{Text: r.bookingInstructions(st.SuggestedSpecialist), Intent: IntentConfirmation}
	case containsAny(lower, negativeTokens):
		st.AwaitingConfirmation = false
		r.metrics.ObserveConfirmation("no")
		return Reply{Text: declineText, Intent: IntentConfirmation}
	default:
		r.metrics.ObserveConfirmation("unclear")
		return Reply{Text: repromptText, Intent: IntentConfirmation}
	}
}

func (r *Router) analyze(st *State, input string) Reply {
	analysis := r.matcher.Analyze(input)
	if !analysis.Found {
		r.metrics.ObserveMatch(false, "")
		return Reply{Text: analysis.Message, Intent: IntentSymptoms, Analysis: &analysis}
	}
	top := analysis.Top().Condition
	r.metrics.ObserveMatch(true, string(top.Urgency))
	// Emergencies get advice only, never a booking offer.
	st.suggest(top.Specialist, top.Urgency, top.Urgency != knowledge.UrgencyEmergency)
	return Reply{Text: analysis.Recommendation, Intent: IntentSymptoms, Analysis: &analysis}
}

func (r *Router) view(ctx context.Context, input string) Reply {
	name, _ := r.extractor.PatientName(input)
	text, err := r.scheduler.View(ctx, name)
	return r.scheduled(IntentViewAppointments, text, err)
}

func (r *Router) cancel(ctx context.Context, input string) Reply {
	id, err := r.extractor.AppointmentID(input)
	if err != nil {
		text := cancelHintText
		if hint := validate.Hint(err); hint != "" {
			text = hint + ". " + cancelHintText
		}
		return Reply{Text: text, Intent: IntentCancelAppointment, Err: ErrAmbiguousInput}
	}
	text, err := r.scheduler.Cancel(ctx, id)
	return r.scheduled(IntentCancelAppointment, text, err)
}

func (r *Router) availability(ctx context.Context, input string) Reply {
	date, ok := r.extractor.Date(input)
	if !ok {
		return Reply{
			Text:   fmt.Sprintf("Please provide a date in YYYY-MM-DD format. Example: 'Show available slots for %s'", r.exampleDate()),
			Intent: IntentCheckAvailability,
			Err:    ErrAmbiguousInput,
		}
	}
	specialist := r.extractor.Specialist(input, r.specialists)
	text, err := r.scheduler.AvailableSlots(ctx, date, specialist)
	return r.scheduled(IntentCheckAvailability, text, err)
}

func (r *Router) book(ctx context.Context, st *State, input string) Reply {
	fields, ok := r.extractor.Booking(input)
	if !ok {
		return Reply{Text: r.bookingHint(), Intent: IntentBookAppointment, Err: ErrAmbiguousInput}
	}
	specialist := st.SuggestedSpecialist
	if specialist == "" {
		specialist = knowledge.GeneralPractitioner
	}
	text, err := r.scheduler.Book(ctx, appointments.BookingInput{
		Name:       fields.Name,
		Date:       fields.Date,
		Time:       fields.Time,
		Reason:     fields.Reason,
		Specialist: specialist,
	})
	return r.scheduled(IntentBookAppointment, text, err)
}

func (r *Router) scheduled(intent Intent, text string, err error) Reply {
	if err != nil {
		r.logger.Error("appointment command failed", "intent", intent, "error", err)
		return Reply{Text: storeApologyText, Intent: intent, Err: fmt.Errorf("%w: %w", ErrExternalService, err)}
	}
	return Reply{Text: text, Intent: intent}
}

func (r *Router) ask(ctx context.Context, st *State, input string) Reply {
	if r.chatter == nil {
		return Reply{Text: modelApologyText, Intent: IntentGeneralQuery, Err: ErrExternalService}
	}
	answer, err := r.chatter.Chat(ctx, st.ID, input, r.prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.logger.Warn("general query cancelled", "session_id", st.ID)
		} else {
			r.logger.Error("general query failed", "session_id", st.ID, "error", err)
		}
		return Reply{Text: modelApologyText, Intent: IntentGeneralQuery, Err: fmt.Errorf("%w: %w", ErrExternalService, err)}
	}
	return Reply{Text: answer, Intent: IntentGeneralQuery}
}

func (r *Router) bookingInstructions(specialist string) string {
	date := r.exampleDate()
	return fmt.Sprintf(`Great! I'll help you book an appointment with a %s.

Please provide the following information:
1. Your full name
2. Preferred date (format: YYYY-MM-DD)
3. Preferred time (HH:MM, between 09:00 and 17:00)
4. Any additional notes about your symptoms

Example: "Book appointment for John Doe on %s at 14:00 reason persistent symptoms"

Or you can check available slots first by saying: "Show available slots for %s on %s"
`, specialist, date, specialist, date)
}

func (r *Router) bookingHint() string {
	date := r.exampleDate()
	return fmt.Sprintf(`To book an appointment, please provide:
1. Patient name (e.g., "for John Doe")
2. Date (YYYY-MM-DD format)
3. Time (HH:MM format)

Example: "Book appointment for John Doe on %s at 14:00"

Or check available slots first: "Show available slots for %s"
`, date, date)
}

func (r *Router) exampleDate() string {
	return r.now().AddDate(0, 0, exampleLeadTimeDay).Format(validate.DateLayout)
}

func specialistsInOrder(kb *knowledge.Base) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range kb.Conditions() {
		if !seen[c.Specialist] {
			seen[c.Specialist] = true
			out = append(out, c.Specialist)
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
