package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/queuecare/hospital-backend/internal/notify"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrNotOwner is returned when a cancellation comes from anyone but the
	// booking user.
	ErrNotOwner = errors.New("only the booking user may cancel")
)

// Lifecycle drives appointment status transitions. Queue numbers are immutable
// once issued; cancelling never renumbers the rest of the day. Every
// transition into confirmed, cancelled or completed dispatches exactly one
// notification, best-effort.
type Lifecycle struct {
	repo     Repository
	notifier notify.Notifier
}

func NewLifecycle(repo Repository, notifier notify.Notifier) *Lifecycle {
	return &Lifecycle{
		repo:     repo,
		notifier: notifier,
	}
}

func (l *Lifecycle) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return l.transition(ctx, id, StatusConfirmed, EventAppointmentConfirmed, nil)
}

func (l *Lifecycle) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return l.transition(ctx, id, StatusCompleted, EventAppointmentCompleted, nil)
}

// Cancel marks the appointment cancelled on behalf of its owning user.
func (l *Lifecycle) Cancel(ctx context.Context, id, userID uuid.UUID) (*Appointment, error) {
	guard := func(appt *Appointment) error {
		if appt.UserID != userID {
			return ErrNotOwner
		}
		return nil
	}
	return l.transition(ctx, id, StatusCancelled, EventAppointmentCancelled, guard)
}

func (l *Lifecycle) transition(ctx context.Context, id uuid.UUID, to AppointmentStatus, eventType string, guard func(*Appointment) error) (*Appointment, error) {
	appt, err := l.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if guard != nil {
		if err := guard(appt); err != nil {
			return nil, err
		}
	}

	if !canTransition(appt.Status, to) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := l.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race: the row moved out of the expected status.
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	logEvent(ctx, l.repo, updated.ID, eventType, map[string]any{
		"from": string(appt.Status),
		"to":   string(to),
	})

	l.dispatchStatusNotification(ctx, updated)

	return updated, nil
}

// canTransition encodes pending -> confirmed -> completed, with cancellation
// allowed from pending or confirmed. Completed and cancelled are terminal.
func canTransition(from, to AppointmentStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

func (l *Lifecycle) dispatchStatusNotification(ctx context.Context, appt *Appointment) {
	doctorName := ""
	if doctor, err := l.repo.GetDoctorByID(ctx, appt.DoctorID); err == nil {
		doctorName = doctor.Name
	}

	notify.Dispatch(l.notifier, notify.KindAppointmentStatus, map[string]any{
		"doctorName":    doctorName,
		"date":          appt.Day.Format("2006-01-02"),
		"queueNumber":   appt.QueueNumber,
		"estimatedTime": appt.EstimatedTime,
		"status":        string(appt.Status),
	})
}
