package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrQueueConflict is raised by the storage layer when two bookings race
	// for the same (doctor, day, queue number). The scheduler retries on it.
	ErrQueueConflict = errors.New("queue number already taken")

	// ErrDuplicateBooking means the user already holds a non-cancelled
	// appointment on that day.
	ErrDuplicateBooking = errors.New("user already has a booking for this day")

	ErrInvalidAvailability = errors.New("invalid availability template")
)

// Repository contains all DB interactions needed by the booking services.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	UpdateDoctorAvailability(ctx context.Context, id uuid.UUID, availability []DayAvailability) (*Doctor, error)

	// NextQueueNumber returns max(queue_number)+1 over all appointments for
	// the day, cancelled included, so issued numbers are never reused.
	NextQueueNumber(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error)
	CountActiveForDay(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error)

	CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointmentsForDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Appointment, error)

	// UpdateAppointmentStatus performs a compare-and-swap; it returns
	// ErrAppointmentNotFound when the row is no longer in the from status.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
