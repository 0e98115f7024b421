package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Names of the partial unique indexes enforcing the booking invariants.
const (
	queueUniqueConstraint   = "appointments_queue_active_uq"
	userDayUniqueConstraint = "appointments_user_day_active_uq"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specialty *string
	var availability []byte

	err := row.Scan(
		&d.ID,
		&d.Name,
		&specialty,
		&availability,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Specialty = specialty
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &d.Availability); err != nil {
			return nil, fmt.Errorf("decode availability: %w", err)
		}
	}
	return &d, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.UserID,
		&a.Day,
		&a.QueueNumber,
		&a.EstimatedTime,
		&a.Status,
		&a.ConsultationMins,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, availability, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) UpdateDoctorAvailability(ctx context.Context, id uuid.UUID, availability []DayAvailability) (*Doctor, error) {
	data, err := json.Marshal(availability)
	if err != nil {
		return nil, fmt.Errorf("encode availability: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET availability = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, specialty, availability, created_at, updated_at
	`, id, data)
	return scanDoctor(row)
}

func (r *PgRepository) NextQueueNumber(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	var next int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(queue_number), 0) + 1
		FROM appointments
		WHERE doctor_id = $1 AND day = $2
	`, doctorID, day).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next queue number: %w", err)
	}
	return next, nil
}

func (r *PgRepository) CountActiveForDay(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE doctor_id = $1 AND day = $2 AND status <> 'cancelled'
	`, doctorID, day).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active appointments: %w", err)
	}
	return count, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, user_id, day, queue_number, estimated_time, status, consultation_mins, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, now(), now())
		RETURNING id, doctor_id, user_id, day, queue_number, estimated_time, status, consultation_mins, created_at, updated_at
	`, id, appt.DoctorID, appt.UserID, appt.Day, appt.QueueNumber, appt.EstimatedTime, appt.ConsultationMins)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case queueUniqueConstraint:
				return nil, ErrQueueConflict
			case userDayUniqueConstraint:
				return nil, ErrDuplicateBooking
			}
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, user_id, day, queue_number, estimated_time, status, consultation_mins, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsForDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, user_id, day, queue_number, estimated_time, status, consultation_mins, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1 AND day = $2
		ORDER BY queue_number
	`, doctorID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, doctor_id, user_id, day, queue_number, estimated_time, status, consultation_mins, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
