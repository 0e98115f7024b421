package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queuecare/hospital-backend/internal/notify"
)

// chanNotifier hands each dispatched notification to the test goroutine.
type chanNotifier struct {
	sent chan string
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{sent: make(chan string, 8)}
}

func (n *chanNotifier) Send(_ context.Context, kind string, _ map[string]any) error {
	n.sent <- kind
	return nil
}

func (n *chanNotifier) waitForSend(t *testing.T) string {
	t.Helper()
	select {
	case kind := <-n.sent:
		return kind
	case <-time.After(2 * time.Second):
		t.Fatal("no notification dispatched")
		return ""
	}
}

func bookPending(t *testing.T, repo *fakeRepo, s *Scheduler, doctorID uuid.UUID) *Appointment {
	t.Helper()
	appt, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
	require.NoError(t, err)
	return appt
}

func TestLifecycleHappyPath(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)
	notifier := newChanNotifier()
	lc := NewLifecycle(repo, notifier)

	appt := bookPending(t, repo, s, doctorID)

	confirmed, err := lc.Confirm(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, notify.KindAppointmentStatus, notifier.waitForSend(t))

	completed, err := lc.Complete(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, notify.KindAppointmentStatus, notifier.waitForSend(t))
}

func TestLifecycleRejectsInvalidTransitions(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)
	lc := NewLifecycle(repo, nil)

	appt := bookPending(t, repo, s, doctorID)

	// pending cannot jump straight to completed
	_, err := lc.Complete(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = lc.Confirm(context.Background(), appt.ID)
	require.NoError(t, err)

	// confirmed cannot be confirmed again
	_, err = lc.Confirm(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = lc.Complete(context.Background(), appt.ID)
	require.NoError(t, err)

	// completed is terminal
	_, err = lc.Cancel(context.Background(), appt.ID, appt.UserID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestCancelOwnerGuard(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)
	lc := NewLifecycle(repo, nil)

	appt := bookPending(t, repo, s, doctorID)

	_, err := lc.Cancel(context.Background(), appt.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotOwner)

	cancelled, err := lc.Cancel(context.Background(), appt.ID, appt.UserID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Cancelled appointments keep their queue number.
	assert.Equal(t, appt.QueueNumber, cancelled.QueueNumber)
}

func TestCancelFromConfirmed(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)
	lc := NewLifecycle(repo, nil)

	appt := bookPending(t, repo, s, doctorID)

	_, err := lc.Confirm(context.Background(), appt.ID)
	require.NoError(t, err)

	cancelled, err := lc.Cancel(context.Background(), appt.ID, appt.UserID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestLifecycleUnknownAppointment(t *testing.T) {
	repo := newFakeRepo()
	lc := NewLifecycle(repo, nil)

	_, err := lc.Confirm(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}
