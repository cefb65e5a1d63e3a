// Package appointments books, lists and cancels specialist appointments.
package appointments

import (
	"errors"
	"time"
)

// Status of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

// DefaultReason is used when a patient gives no reason for the visit.
const DefaultReason = "General consultation"

// SlotTimes are the bookable start times for every specialist, HH:MM:SS.
var SlotTimes = []string{"09:00:00", "10:00:00", "11:00:00", "14:00:00", "15:00:00", "16:00:00"}

var (
	// ErrSlotUnavailable means a scheduled appointment already holds the
	// (date, time, specialist) slot.
	ErrSlotUnavailable = errors.New("appointments: slot unavailable")
	// ErrNotFound means no scheduled appointment has the given id.
	ErrNotFound = errors.New("appointments: not found")
)

// Appointment is a booked visit. Date is YYYY-MM-DD and Time is HH:MM:SS.
type Appointment struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Specialist  string    `json:"specialist"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookingRequest carries already-validated fields to a Store.
type BookingRequest struct {
	PatientName string
	Phone       string
	Email       string
	Date        string
	Time        string
	Specialist  string
	Reason      string
	Notes       string
}

// ListFilter narrows List. Empty fields match everything; an empty Status
// means scheduled.
type ListFilter struct {
	PatientName string
	Specialist  string
	Status      Status
}

func (f ListFilter) status() Status {
	if f.Status == "" {
		return StatusScheduled
	}
	return f.Status
}

func slotKey(date, clock, specialist string) string {
	return date + "|" + clock + "|" + specialist
}
