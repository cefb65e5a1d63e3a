package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/medtriage-assistant/internal/appointments"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

type bookedBody struct {
	Appointment appointments.Appointment `json:"appointment"`
	Message     string                   `json:"message"`
}

func bookVia(t *testing.T, h *AppointmentsHandler, in appointments.BookingInput) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/api/appointments/book", jsonBody(t, in)))
	return rec
}

func TestAppointmentsBook(t *testing.T) {
	h := NewAppointmentsHandler(newFixture(t).svc, logging.Discard())

	rec := bookVia(t, h, appointments.BookingInput{Name: "john doe", Date: "2025-12-10", Time: "10:00", Specialist: "Cardiologist"})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody[bookedBody](t, rec)
	assert.Equal(t, "John Doe", body.Appointment.PatientName)
	assert.Equal(t, "10:00:00", body.Appointment.Time)
	assert.Equal(t, appointments.DefaultReason, body.Appointment.Reason)
	assert.Contains(t, body.Message, "APPOINTMENT CONFIRMED")

	rec = bookVia(t, h, appointments.BookingInput{Name: "Jane Roe", Date: "2025-12-10", Time: "10:00", Specialist: "Cardiologist"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAppointmentsBookRejectsBadInput(t *testing.T) {
	h := NewAppointmentsHandler(newFixture(t).svc, logging.Discard())

	rec := bookVia(t, h, appointments.BookingInput{Name: "John Doe", Date: "2025-12-10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name, date and time are required")

	rec = bookVia(t, h, appointments.BookingInput{Name: "John Doe", Date: "2025-12-10", Time: "18:00"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "time", body["field"])
	assert.Equal(t, "Time must be between 09:00 and 17:00", body["error"])
}

func TestAppointmentsListSlotsAndCancel(t *testing.T) {
	fx := newFixture(t)
	h := NewAppointmentsHandler(fx.svc, logging.Discard())
	appt, err := fx.svc.BookAppointment(context.Background(), appointments.BookingInput{
		Name: "John Doe", Date: "2025-12-10", Time: "09:00", Specialist: "Neurologist",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/appointments?patient=john+doe", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody[map[string][]appointments.Appointment](t, rec)["appointments"]
	require.Len(t, listed, 1)
	assert.Equal(t, appt.ID, listed[0].ID)

	rec = httptest.NewRecorder()
	h.Slots(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/slots?date=2025-12-10&specialist=Neurologist", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	slots := decodeBody[map[string]any](t, rec)["slots"]
	assert.Equal(t, []any{"10:00", "11:00", "14:00", "15:00", "16:00"}, slots)

	rec = httptest.NewRecorder()
	h.Cancel(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "appointmentID", "99"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.Cancel(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "appointmentID", "abc"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "appointment_id", decodeBody[map[string]string](t, rec)["field"])

	rec = httptest.NewRecorder()
	h.Cancel(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "appointmentID", "0"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Appointment ID must be a positive number", decodeBody[map[string]string](t, rec)["error"])

	id := listed[0].ID
	rec = httptest.NewRecorder()
	h.Cancel(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "appointmentID", formatID(id)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, appointments.StatusCancelled, decodeBody[bookedBody](t, rec).Appointment.Status)

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/appointments?status=cancelled", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[map[string][]appointments.Appointment](t, rec)["appointments"], 1)
}

func TestAppointmentsListRejectsUnknownStatus(t *testing.T) {
	h := NewAppointmentsHandler(newFixture(t).svc, logging.Discard())
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/appointments?status=pending", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppointmentsSlotsValidation(t *testing.T) {
	h := NewAppointmentsHandler(newFixture(t).svc, logging.Discard())

	rec := httptest.NewRecorder()
	h.Slots(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/slots", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Slots(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/slots?date=2025-11-01", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "past")
}
