package appointments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wolfman30/medtriage-assistant/internal/observability/metrics"
	"github.com/wolfman30/medtriage-assistant/internal/validate"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrStoreUnavailable wraps every failure of the underlying Store.
var ErrStoreUnavailable = errors.New("appointments: store unavailable")

const (
	maxReasonLength   = 500
	defaultSpecialist = "General Practitioner"
	listRule          = "======================================================================"
	entryRule         = "──────────────────────────────────────────────────────────────────────"
)

// Notifier is told about bookings and cancellations after they are stored.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt Appointment) error
	AppointmentCancelled(ctx context.Context, appt Appointment) error
}

// BookingInput is raw, unvalidated booking data from chat or HTTP.
type BookingInput struct {
	Name       string `json:"name"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Reason     string `json:"reason,omitempty"`
	Specialist string `json:"specialist,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Service validates input, talks to the Store and renders patient-facing
// messages.
type Service struct {
	store     Store
	validator validate.Validator
	notifier  Notifier
	metrics   *metrics.TriageMetrics
	logger    *logging.Logger
	tracer    trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithValidator overrides the validator, mostly to pin the clock in tests.
func WithValidator(v validate.Validator) Option {
	return func(s *Service) { s.validator = v }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.TriageMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, logger *logging.Logger, opts ...Option) *Service {
	if store == nil {
		panic("appointments: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:     store,
		validator: validate.New(),
		logger:    logger,
		tracer:    otel.Tracer("medtriage.internal.appointments"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookAppointment validates in and books it. It returns a *validate.Error for
// bad input, ErrSlotUnavailable on conflict and ErrStoreUnavailable (wrapped)
// when the store fails.
func (s *Service) BookAppointment(ctx context.Context, in BookingInput) (*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.book")
	defer span.End()

	name, err := s.validator.Name(in.Name)
	if err != nil {
		s.metrics.ObserveAppointment("book", "invalid")
		return nil, err
	}
	day, err := s.validator.Date(in.Date)
	if err != nil {
		s.metrics.ObserveAppointment("book", "invalid")
		return nil, err
	}
	clock, err := s.validator.Time(in.Time)
	if err != nil {
		s.metrics.ObserveAppointment("book", "invalid")
		return nil, err
	}
	phone, err := s.validator.Phone(in.Phone)
	if err != nil {
		s.metrics.ObserveAppointment("book", "invalid")
		return nil, err
	}
	email, err := s.validator.Email(in.Email)
	if err != nil {
		s.metrics.ObserveAppointment("book", "invalid")
		return nil, err
	}
	reason := validate.SanitizeText(in.Reason, maxReasonLength)
	if reason == "" {
		reason = DefaultReason
	}
	specialist := strings.TrimSpace(in.Specialist)
	if specialist == "" {
		specialist = defaultSpecialist
	}
	span.SetAttributes(attribute.String("medtriage.specialist", specialist))

	appt, err := s.store.Book(ctx, BookingRequest{
		PatientName: name,
		Phone:       phone,
		Email:       email,
		Date:        day.Format(validate.DateLayout),
		Time:        clock,
		Specialist:  specialist,
		Reason:      reason,
	})
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		s.metrics.ObserveAppointment("book", "conflict")
		return nil, err
	case err != nil:
		span.RecordError(err)
		s.metrics.ObserveAppointment("book", "error")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.metrics.ObserveAppointment("book", "ok")
	s.logger.Info("appointment booked", "appointment_id", appt.ID, "specialist", appt.Specialist, "date", appt.Date)

	if s.notifier != nil {
		if err := s.notifier.AppointmentBooked(ctx, *appt); err != nil {
			s.logger.Warn("booking notification failed", "appointment_id", appt.ID, "error", err)
		}
	}
	return appt, nil
}

// ListAppointments returns appointments matching filter.
func (s *Service) ListAppointments(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.list")
	defer span.End()

	if filter.PatientName != "" {
		if name, err := s.validator.Name(filter.PatientName); err == nil {
			filter.PatientName = name
		}
	}
	appts, err := s.store.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveAppointment("list", "error")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.metrics.ObserveAppointment("list", "ok")
	return appts, nil
}

// CancelAppointment cancels a scheduled appointment.
func (s *Service) CancelAppointment(ctx context.Context, id int64) (*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.cancel", trace.WithAttributes(attribute.Int64("medtriage.appointment_id", id)))
	defer span.End()

	appt, err := s.store.Cancel(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		s.metrics.ObserveAppointment("cancel", "not_found")
		return nil, err
	case err != nil:
		span.RecordError(err)
		s.metrics.ObserveAppointment("cancel", "error")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.metrics.ObserveAppointment("cancel", "ok")
	s.logger.Info("appointment cancelled", "appointment_id", id)

	if s.notifier != nil {
		if err := s.notifier.AppointmentCancelled(ctx, *appt); err != nil {
			s.logger.Warn("cancellation notification failed", "appointment_id", id, "error", err)
		}
	}
	return appt, nil
}

// FreeSlots returns the HH:MM start times still open for specialist on date.
func (s *Service) FreeSlots(ctx context.Context, date, specialist string) ([]string, error) {
	day, err := s.validator.Date(date)
	if err != nil {
		return nil, err
	}
	if specialist = strings.TrimSpace(specialist); specialist == "" {
		specialist = defaultSpecialist
	}
	booked, err := s.store.BookedTimes(ctx, day.Format(validate.DateLayout), specialist)
	if err != nil {
		s.metrics.ObserveAppointment("slots", "error")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	taken := make(map[string]bool, len(booked))
	for _, t := range booked {
		taken[t] = true
	}
	free := make([]string, 0, len(SlotTimes))
	for _, t := range SlotTimes {
		if !taken[t] {
			free = append(free, t[:5])
		}
	}
	s.metrics.ObserveAppointment("slots", "ok")
	return free, nil
}

// Book books in and renders the outcome. Validation problems and conflicts
// come back as messages; only store failures are errors.
func (s *Service) Book(ctx context.Context, in BookingInput) (string, error) {
	appt, err := s.BookAppointment(ctx, in)
	if hint := validate.Hint(err); hint != "" {
		return "❌ " + hint, nil
	}
	if errors.Is(err, ErrSlotUnavailable) {
		specialist := in.Specialist
		if specialist == "" {
			specialist = defaultSpecialist
		}
		return fmt.Sprintf("❌ Sorry, %s is not available at %s on %s.", specialist, strings.TrimSpace(in.Time), strings.TrimSpace(in.Date)), nil
	}
	if err != nil {
		return "", err
	}
	return Confirmation(*appt), nil
}

// View renders scheduled appointments, optionally for one patient.
func (s *Service) View(ctx context.Context, patientName string) (string, error) {
	appts, err := s.ListAppointments(ctx, ListFilter{PatientName: patientName})
	if err != nil {
		return "", err
	}
	return Listing(appts), nil
}

// Cancel cancels id and renders the outcome.
func (s *Service) Cancel(ctx context.Context, id int64) (string, error) {
	_, err := s.CancelAppointment(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Sprintf("❌ Appointment %d not found.", id), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Appointment %d has been cancelled.", id), nil
}

// AvailableSlots renders the open slots for specialist on date.
func (s *Service) AvailableSlots(ctx context.Context, date, specialist string) (string, error) {
	if specialist = strings.TrimSpace(specialist); specialist == "" {
		specialist = defaultSpecialist
	}
	free, err := s.FreeSlots(ctx, date, specialist)
	if hint := validate.Hint(err); hint != "" {
		return "❌ " + hint, nil
	}
	if err != nil {
		return "", err
	}
	if len(free) == 0 {
		return fmt.Sprintf("No available slots for %s on %s.", specialist, date), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 Available slots for %s on %s:\n\n", specialist, date)
	for _, t := range free {
		sb.WriteString("  ⏰ " + t + "\n")
	}
	return sb.String(), nil
}

// Confirmation renders a booked appointment.
func Confirmation(a Appointment) string {
	var sb strings.Builder
	sb.WriteString("✅ APPOINTMENT CONFIRMED!\n")
	sb.WriteString("Appointment ID: " + strconv.FormatInt(a.ID, 10) + "\n")
	sb.WriteString("Patient: " + a.PatientName + "\n")
	sb.WriteString("Specialist: " + a.Specialist + "\n")
	sb.WriteString("Date: " + a.Date + "\n")
	sb.WriteString("Time: " + a.Time + "\n")
	sb.WriteString("Reason: " + a.Reason + "\n\n")
	sb.WriteString("📧 Please arrive 15 minutes early for check-in.")
	return sb.String()
}

// Listing renders appointments in the order given.
func Listing(appts []Appointment) string {
	if len(appts) == 0 {
		return "No appointments found."
	}
	var sb strings.Builder
	sb.WriteString("\n📅 SCHEDULED APPOINTMENTS:\n")
	sb.WriteString(listRule + "\n")
	for _, a := range appts {
		fmt.Fprintf(&sb, "\nID: %d\n", a.ID)
		fmt.Fprintf(&sb, "Patient: %s\n", a.PatientName)
		fmt.Fprintf(&sb, "Date: %s\n", a.Date)
		fmt.Fprintf(&sb, "Time: %s\n", a.Time)
		fmt.Fprintf(&sb, "Specialist: %s\n", a.Specialist)
		fmt.Fprintf(&sb, "Reason: %s\n", a.Reason)
		fmt.Fprintf(&sb, "Status: %s\n", a.Status)
		sb.WriteString(entryRule + "\n")
	}
	return sb.String()
}
