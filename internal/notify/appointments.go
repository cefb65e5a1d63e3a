package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/medtriage-assistant/internal/appointments"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// AppointmentNotifier tells the front desk about booking changes.
type AppointmentNotifier struct {
	sender    EmailSender
	frontDesk string
	logger    *logging.Logger
}

// NewAppointmentNotifier returns nil when there is no sender or recipient.
func NewAppointmentNotifier(sender EmailSender, frontDesk string, logger *logging.Logger) *AppointmentNotifier {
	frontDesk = strings.TrimSpace(frontDesk)
	if sender == nil || frontDesk == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentNotifier{sender: sender, frontDesk: frontDesk, logger: logger}
}

func (n *AppointmentNotifier) AppointmentBooked(ctx context.Context, appt appointments.Appointment) error {
	return n.send(ctx, EmailMessage{
		To:      n.frontDesk,
		ToName:  "Front Desk",
		Subject: fmt.Sprintf("New appointment #%d: %s with %s", appt.ID, appt.PatientName, appt.Specialist),
		Body:    appointmentBody("A new appointment was booked.", appt),
	})
}

func (n *AppointmentNotifier) AppointmentCancelled(ctx context.Context, appt appointments.Appointment) error {
	return n.send(ctx, EmailMessage{
		To:      n.frontDesk,
		ToName:  "Front Desk",
		Subject: fmt.Sprintf("Appointment #%d cancelled", appt.ID),
		Body:    appointmentBody("An appointment was cancelled.", appt),
	})
}

func (n *AppointmentNotifier) send(ctx context.Context, msg EmailMessage) error {
	if n == nil || n.sender == nil {
		return errors.New("notify: notifier not configured")
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: %s: %w", msg.Subject, err)
	}
	return nil
}

func appointmentBody(headline string, a appointments.Appointment) string {
	var sb strings.Builder
	sb.WriteString(headline + "\n\n")
	fmt.Fprintf(&sb, "Appointment ID: %d\n", a.ID)
	fmt.Fprintf(&sb, "Patient: %s\n", a.PatientName)
	fmt.Fprintf(&sb, "Specialist: %s\n", a.Specialist)
	fmt.Fprintf(&sb, "Date: %s\n", a.Date)
	fmt.Fprintf(&sb, "Time: %s\n", a.Time)
	if a.Reason != "" {
		fmt.Fprintf(&sb, "Reason: %s\n", a.Reason)
	}
	return sb.String()
}

var _ appointments.Notifier = (*AppointmentNotifier)(nil)
