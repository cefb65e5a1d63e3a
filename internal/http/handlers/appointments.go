package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/medtriage-assistant/internal/appointments"
	"github.com/wolfman30/medtriage-assistant/internal/validate"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// AppointmentsHandler exposes booking operations as JSON.
type AppointmentsHandler struct {
	svc    *appointments.Service
	logger *logging.Logger
}

func NewAppointmentsHandler(svc *appointments.Service, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{svc: svc, logger: logger}
}

type appointmentResponse struct {
	Appointment *appointments.Appointment `json:"appointment"`
	Message     string                    `json:"message"`
}

// List handles GET /api/appointments?patient=&specialist=&status=.
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := appointments.ListFilter{
		PatientName: strings.TrimSpace(q.Get("patient")),
		Specialist:  strings.TrimSpace(q.Get("specialist")),
		Status:      appointments.Status(strings.ToLower(strings.TrimSpace(q.Get("status")))),
	}
	switch filter.Status {
	case "", appointments.StatusScheduled, appointments.StatusCancelled:
	default:
		jsonError(w, "status must be scheduled or cancelled", http.StatusBadRequest)
		return
	}
	appts, err := h.svc.ListAppointments(r.Context(), filter)
	if err != nil {
		h.storeError(w, "list appointments", err)
		return
	}
	if appts == nil {
		appts = []appointments.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

// Book handles POST /api/appointments/book.
func (h *AppointmentsHandler) Book(w http.ResponseWriter, r *http.Request) {
	var in appointments.BookingInput
	if err := decodeJSON(w, r, &in); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Time) == "" {
		jsonError(w, "name, date and time are required", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.BookAppointment(r.Context(), in)
	var ve *validate.Error
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
		return
	case errors.Is(err, appointments.ErrSlotUnavailable):
		jsonError(w, "slot is not available", http.StatusConflict)
		return
	case err != nil:
		h.storeError(w, "book appointment", err)
		return
	}
	writeJSON(w, http.StatusCreated, appointmentResponse{Appointment: appt, Message: appointments.Confirmation(*appt)})
}

// Slots handles GET /api/appointments/slots?date=&specialist=.
func (h *AppointmentsHandler) Slots(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		jsonError(w, "date is required", http.StatusBadRequest)
		return
	}
	specialist := strings.TrimSpace(r.URL.Query().Get("specialist"))
	slots, err := h.svc.FreeSlots(r.Context(), date, specialist)
	if hint := validate.Hint(err); hint != "" {
		jsonError(w, hint, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.storeError(w, "list free slots", err)
		return
	}
	if specialist == "" {
		specialist = "General Practitioner"
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "specialist": specialist, "slots": slots})
}

// Cancel handles POST /api/appointments/{appointmentID}/cancel.
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := validate.New().AppointmentID(chi.URLParam(r, "appointmentID"))
	var ve *validate.Error
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
		return
	}
	appt, err := h.svc.CancelAppointment(r.Context(), id)
	if errors.Is(err, appointments.ErrNotFound) {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.storeError(w, "cancel appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentResponse{
		Appointment: appt,
		Message:     "✅ Appointment " + strconv.FormatInt(id, 10) + " has been cancelled.",
	})
}

func (h *AppointmentsHandler) storeError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", "error", err)
	jsonError(w, "appointment store unavailable", http.StatusServiceUnavailable)
}
