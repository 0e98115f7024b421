package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
)

const DefaultConsultationMins = 30

var (
	// ErrNotAvailable means the doctor has no bookable template for the
	// requested day. A different date may succeed.
	ErrNotAvailable = errors.New("doctor is not available on this day")

	// ErrSlotsExhausted means the day's schedule is full: the estimated time
	// for the next queue position falls at or past the end of the last slot.
	ErrSlotsExhausted = errors.New("no slots left for this day")

	// ErrQueueContention is surfaced after the conflict-retry bound is spent.
	ErrQueueContention = errors.New("could not allocate a queue number, please retry")

	ErrPastDay = errors.New("cannot book a past day")
)

// Scheduler assigns queue positions. Queue numbers for a (doctor, day) pair
// are allocated from the persisted maximum and made safe under concurrency by
// the partial unique index on non-cancelled rows plus a bounded retry loop.
type Scheduler struct {
	repo       Repository
	maxRetries int
	now        func() time.Time
}

func NewScheduler(repo Repository, maxRetries int) *Scheduler {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Scheduler{
		repo:       repo,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Book reserves the next queue position for the user with the doctor on the
// given day. The appointment is created as pending; duration defaults to 30
// minutes when non-positive.
func (s *Scheduler) Book(ctx context.Context, doctorID, userID uuid.UUID, day time.Time, durationMins int) (*Appointment, error) {
	if durationMins <= 0 {
		durationMins = DefaultConsultationMins
	}
	day = TruncateDay(day)
	if day.Before(TruncateDay(s.now())) {
		return nil, ErrPastDay
	}

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	template := DayTemplate(doctor, day)
	if template == nil {
		return nil, ErrNotAvailable
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		queueNumber, err := s.repo.NextQueueNumber(ctx, doctorID, day)
		if err != nil {
			return nil, err
		}

		estimated, err := estimateTime(template, queueNumber, durationMins)
		if err != nil {
			return nil, err
		}

		created, err := s.repo.CreateAppointment(ctx, &Appointment{
			DoctorID:         doctorID,
			UserID:           userID,
			Day:              day,
			QueueNumber:      queueNumber,
			EstimatedTime:    estimated,
			ConsultationMins: durationMins,
		})
		if err != nil {
			if errors.Is(err, ErrQueueConflict) {
				log.Printf("queue conflict doctor=%s day=%s number=%d attempt=%d", doctorID, day.Format("2006-01-02"), queueNumber, attempt+1)
				continue
			}
			return nil, err
		}

		s.logEvent(ctx, created.ID, EventAppointmentBooked, map[string]any{
			"doctor_id":      doctorID.String(),
			"user_id":        userID.String(),
			"day":            day.Format("2006-01-02"),
			"queue_number":   created.QueueNumber,
			"estimated_time": created.EstimatedTime,
		})

		return created, nil
	}

	return nil, ErrQueueContention
}

// GetAppointment loads a single appointment.
func (s *Scheduler) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// ListForDay returns a doctor's appointments for a day in queue order.
func (s *Scheduler) ListForDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Appointment, error) {
	return s.repo.ListAppointmentsForDay(ctx, doctorID, TruncateDay(day))
}

// DayOverview exposes the availability template and its informational
// capacity figure together with the current active booking count.
func (s *Scheduler) DayOverview(ctx context.Context, doctorID uuid.UUID, day time.Time) (*DayAvailability, int, int, error) {
	day = TruncateDay(day)

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, 0, 0, err
	}

	template := DayTemplate(doctor, day)
	if template == nil {
		return nil, 0, 0, nil
	}

	active, err := s.repo.CountActiveForDay(ctx, doctorID, day)
	if err != nil {
		return nil, 0, 0, err
	}

	return template, TotalCapacity(template), active, nil
}

// SetAvailability validates and stores a doctor's weekly template.
func (s *Scheduler) SetAvailability(ctx context.Context, doctorID uuid.UUID, entries []DayAvailability) (*Doctor, error) {
	if err := ValidateAvailability(entries); err != nil {
		return nil, err
	}
	return s.repo.UpdateDoctorAvailability(ctx, doctorID, entries)
}

// estimateTime derives the consultation estimate for a queue position:
// start of the first template slot plus (position-1) consultation durations.
// The estimate must stay inside the same day and strictly before the end of
// the last slot; otherwise the day is full.
func estimateTime(template *DayAvailability, queueNumber, durationMins int) (string, error) {
	if len(template.TimeSlots) == 0 {
		return "", ErrNotAvailable
	}

	first := template.TimeSlots[0]
	last := template.TimeSlots[len(template.TimeSlots)-1]

	baseStart, err := parseClock(first.StartTime)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAvailability, err)
	}
	lastEnd, err := parseClock(last.EndTime)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAvailability, err)
	}

	estimated := baseStart + (queueNumber-1)*durationMins
	if estimated >= minutesPerDay {
		return "", ErrSlotsExhausted
	}
	if estimated >= lastEnd {
		return "", ErrSlotsExhausted
	}

	return formatClock(estimated), nil
}

// TruncateDay normalizes a timestamp to its calendar day in UTC.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Scheduler) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	logEvent(ctx, s.repo, appointmentID, eventType, payload)
}

func logEvent(ctx context.Context, repo Repository, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}
