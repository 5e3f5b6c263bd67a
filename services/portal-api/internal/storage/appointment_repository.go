package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bhcare/patient-portal/libs/db"
	"github.com/bhcare/patient-portal/schedule"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// activeStatuses are the statuses that hold a slot. Cancelled and completed
// appointments never block new bookings.
const activeStatuses = `('pending', 'waiting', 'confirmed')`

// ListTakenTimes returns, per "HH:MM" time, how many active appointments
// already occupy that time on the given date.
func (r *AppointmentRepository) ListTakenTimes(ctx context.Context, date string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(appointment_time, 'HH24:MI'), count(*)
		FROM appointments
		WHERE appointment_date = $1 AND status IN `+activeStatuses+`
		GROUP BY appointment_time
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := map[string]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		taken[t] = n
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return taken, nil
}

// LockWindow locks the schedule window covering the given weekday and time
// and returns its capacity. The row lock serializes concurrent bookings of
// the same slot so the count in CountActiveAt cannot race. Returns false
// when no window covers the time.
func (r *AppointmentRepository) LockWindow(ctx context.Context, tx pgx.Tx, dayOfWeek int, timeOfDay string) (int, bool, error) {
	var capacity int
	err := tx.QueryRow(ctx, `
		SELECT capacity
		FROM schedule_slots
		WHERE day_of_week = $1
			AND is_active
			AND start_time <= $2::time
			AND end_time > $2::time
		ORDER BY start_time
		LIMIT 1
		FOR UPDATE
	`, dayOfWeek, timeOfDay).Scan(&capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return capacity, true, nil
}

func (r *AppointmentRepository) CountActiveAt(ctx context.Context, tx pgx.Tx, date, timeOfDay string) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE appointment_date = $1
			AND appointment_time = $2::time
			AND status IN `+activeStatuses+`
	`, date, timeOfDay).Scan(&n)
	return n, err
}

func (r *AppointmentRepository) CountWaitingOn(ctx context.Context, tx pgx.Tx, date string) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE appointment_date = $1 AND status = 'waiting'
	`, date).Scan(&n)
	return n, err
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *schedule.Appointment) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments (user_id, appointment_date, appointment_time, service_type, status, reason)
		VALUES ($1, $2, $3::time, $4, $5, $6)
		RETURNING id
	`, appt.UserID, appt.Date, appt.Time, appt.ServiceType, appt.Status, appt.Reason).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (schedule.Appointment, error) {
	var appt schedule.Appointment
	err := tx.QueryRow(ctx, `
		SELECT id, user_id,
			to_char(appointment_date, 'YYYY-MM-DD'),
			to_char(appointment_time, 'HH24:MI'),
			service_type, status, COALESCE(reason, '')
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&appt.ID, &appt.UserID, &appt.Date, &appt.Time, &appt.ServiceType, &appt.Status, &appt.Reason)
	if err != nil {
		return schedule.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepository) Cancel(ctx context.Context, tx pgx.Tx, id int64, reason string) error {
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			reason = $2,
			cancelled_at = now(),
			updated_at = now()
		WHERE id = $1
	`, id, reason)
	return err
}

// Reschedule moves an appointment to a new date and time and resets its
// status to pending; an overdue appointment becomes a fresh booking again.
func (r *AppointmentRepository) Reschedule(ctx context.Context, tx pgx.Tx, id int64, date, timeOfDay string) error {
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET appointment_date = $2,
			appointment_time = $3::time,
			status = 'pending',
			updated_at = now()
		WHERE id = $1
	`, id, date, timeOfDay)
	return err
}

func (r *AppointmentRepository) Get(ctx context.Context, id int64) (schedule.Appointment, error) {
	var appt schedule.Appointment
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id,
			to_char(appointment_date, 'YYYY-MM-DD'),
			to_char(appointment_time, 'HH24:MI'),
			service_type, status, COALESCE(reason, '')
		FROM appointments
		WHERE id = $1
	`, id).Scan(&appt.ID, &appt.UserID, &appt.Date, &appt.Time, &appt.ServiceType, &appt.Status, &appt.Reason)
	if err != nil {
		return schedule.Appointment{}, err
	}
	return appt, nil
}

// List returns every appointment, optionally narrowed to one date and/or one
// status. Empty filter values mean "any". Used by the staff dashboard.
func (r *AppointmentRepository) List(ctx context.Context, date, status string) ([]schedule.Appointment, error) {
	query := `
		SELECT id, user_id,
			to_char(appointment_date, 'YYYY-MM-DD'),
			to_char(appointment_time, 'HH24:MI'),
			service_type, status, COALESCE(reason, '')
		FROM appointments
		WHERE 1=1`
	var args []any
	if date != "" {
		args = append(args, date)
		query += fmt.Sprintf(" AND appointment_date = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY appointment_date, appointment_time, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []schedule.Appointment
	for rows.Next() {
		var appt schedule.Appointment
		if err := rows.Scan(&appt.ID, &appt.UserID, &appt.Date, &appt.Time, &appt.ServiceType, &appt.Status, &appt.Reason); err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *AppointmentRepository) ListByUser(ctx context.Context, userID int64) ([]schedule.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id,
			to_char(appointment_date, 'YYYY-MM-DD'),
			to_char(appointment_time, 'HH24:MI'),
			service_type, status, COALESCE(reason, '')
		FROM appointments
		WHERE user_id = $1
		ORDER BY appointment_date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []schedule.Appointment
	for rows.Next() {
		var appt schedule.Appointment
		if err := rows.Scan(&appt.ID, &appt.UserID, &appt.Date, &appt.Time, &appt.ServiceType, &appt.Status, &appt.Reason); err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// FormatID renders an appointment id the way it appears on the wire, e.g.
// as a Kafka message key.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505")
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
