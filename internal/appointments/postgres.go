package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolation = "23505"

// PgxPool is the subset of pgxpool.Pool used by PostgresStore.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists patients and appointments in Postgres.
type PostgresStore struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresStore{pool: pool, tracer: otel.Tracer("medtriage.internal.appointments.postgres")}
}

// Book upserts the patient and inserts the appointment in one transaction.
// A transaction-scoped advisory lock on the slot serializes concurrent
// bookings; the partial unique index on scheduled slots backs it up.
func (s *PostgresStore) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.pg.book", trace.WithAttributes(
		attribute.String("medtriage.specialist", req.Specialist),
		attribute.String("medtriage.date", req.Date),
	))
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var patientID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO patients (full_name, phone, email)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		ON CONFLICT (full_name) DO UPDATE
		SET phone = COALESCE(EXCLUDED.phone, patients.phone),
			email = COALESCE(EXCLUDED.email, patients.email)
		RETURNING patient_id
	`, req.PatientName, req.Phone, req.Email).Scan(&patientID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: upsert patient: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, slotKey(req.Date, req.Time, req.Specialist)); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: lock slot: %w", err)
	}

	var taken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE appointment_date = $1::date
			  AND appointment_time = $2::time
			  AND specialist = $3
			  AND status = 'scheduled'
		)
	`, req.Date, req.Time, req.Specialist).Scan(&taken)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: check slot: %w", err)
	}
	if taken {
		return nil, ErrSlotUnavailable
	}

	appt := Appointment{
		PatientID:   patientID,
		PatientName: req.PatientName,
		Date:        req.Date,
		Time:        req.Time,
		Specialist:  req.Specialist,
		Reason:      req.Reason,
		Notes:       req.Notes,
		Status:      StatusScheduled,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, appointment_date, appointment_time, reason, specialist, notes)
		VALUES ($1, $2::date, $3::time, $4, $5, NULLIF($6, ''))
		RETURNING appointment_id, created_at
	`, patientID, req.Date, req.Time, req.Reason, req.Specialist, req.Notes).Scan(&appt.ID, &appt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotUnavailable
		}
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotUnavailable
		}
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: commit: %w", err)
	}
	return &appt, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.pg.list")
	defer span.End()

	var sb strings.Builder
	sb.WriteString(`
		SELECT a.appointment_id, a.patient_id, p.full_name,
			to_char(a.appointment_date, 'YYYY-MM-DD'), to_char(a.appointment_time, 'HH24:MI:SS'),
			a.specialist, COALESCE(a.reason, ''), COALESCE(a.notes, ''), a.status, a.created_at
		FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		WHERE a.status = $1`)
	args := []any{string(filter.status())}
	if filter.PatientName != "" {
		args = append(args, filter.PatientName)
		fmt.Fprintf(&sb, " AND p.full_name = $%d", len(args))
	}
	if filter.Specialist != "" {
		args = append(args, filter.Specialist)
		fmt.Fprintf(&sb, " AND a.specialist = $%d", len(args))
	}
	sb.WriteString(" ORDER BY a.appointment_date, a.appointment_time")

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		var status string
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.Date, &a.Time, &a.Specialist, &a.Reason, &a.Notes, &status, &a.CreatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		a.Status = Status(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

// Cancel only touches scheduled appointments, so cancelling twice reports
// ErrNotFound the second time.
func (s *PostgresStore) Cancel(ctx context.Context, id int64) (*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.pg.cancel", trace.WithAttributes(attribute.Int64("medtriage.appointment_id", id)))
	defer span.End()

	a := Appointment{ID: id, Status: StatusCancelled}
	err := s.pool.QueryRow(ctx, `
		UPDATE appointments a
		SET status = 'cancelled'
		FROM patients p
		WHERE a.appointment_id = $1 AND a.status = 'scheduled' AND p.patient_id = a.patient_id
		RETURNING a.patient_id, p.full_name, to_char(a.appointment_date, 'YYYY-MM-DD'),
			to_char(a.appointment_time, 'HH24:MI:SS'), a.specialist, COALESCE(a.reason, '')
	`, id).Scan(&a.PatientID, &a.PatientName, &a.Date, &a.Time, &a.Specialist, &a.Reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: cancel: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) BookedTimes(ctx context.Context, date, specialist string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(appointment_time, 'HH24:MI:SS')
		FROM appointments
		WHERE appointment_date = $1::date AND specialist = $2 AND status = 'scheduled'
	`, date, specialist)
	if err != nil {
		return nil, fmt.Errorf("appointments: booked times: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("appointments: scan booked time: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
