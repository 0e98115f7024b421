package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory Repository mirroring the storage-level guarantees:
// the partial uniqueness of active (doctor, day, queue number) rows and the
// one-active-booking-per-user-per-day rule.
type fakeRepo struct {
	doctors      map[uuid.UUID]*Doctor
	appointments map[uuid.UUID]*Appointment
	events       []EventLog

	// forcedConflicts makes the next N CreateAppointment calls fail with
	// ErrQueueConflict, simulating lost races.
	forcedConflicts int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		doctors:      make(map[uuid.UUID]*Doctor),
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

func (r *fakeRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	doc, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return doc, nil
}

func (r *fakeRepo) UpdateDoctorAvailability(_ context.Context, id uuid.UUID, availability []DayAvailability) (*Doctor, error) {
	doc, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	doc.Availability = availability
	return doc, nil
}

func (r *fakeRepo) NextQueueNumber(_ context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	max := 0
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Day.Equal(day) && a.QueueNumber > max {
			max = a.QueueNumber
		}
	}
	return max + 1, nil
}

func (r *fakeRepo) CountActiveForDay(_ context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	count := 0
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Day.Equal(day) && a.Status != StatusCancelled {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) CreateAppointment(_ context.Context, appt *Appointment) (*Appointment, error) {
	if r.forcedConflicts > 0 {
		r.forcedConflicts--
		return nil, ErrQueueConflict
	}

	for _, existing := range r.appointments {
		if existing.Status == StatusCancelled {
			continue
		}
		if existing.DoctorID == appt.DoctorID && existing.Day.Equal(appt.Day) && existing.QueueNumber == appt.QueueNumber {
			return nil, ErrQueueConflict
		}
		if existing.UserID == appt.UserID && existing.Day.Equal(appt.Day) {
			return nil, ErrDuplicateBooking
		}
	}

	stored := *appt
	stored.ID = uuid.New()
	stored.Status = StatusPending
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.appointments[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (r *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	result := *a
	return &result, nil
}

func (r *fakeRepo) ListAppointmentsForDay(_ context.Context, doctorID uuid.UUID, day time.Time) ([]Appointment, error) {
	var result []Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Day.Equal(day) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	result := *a
	return &result, nil
}

func (r *fakeRepo) InsertEvent(_ context.Context, ev EventLog) error {
	r.events = append(r.events, ev)
	return nil
}

func seedDoctor(repo *fakeRepo) uuid.UUID {
	id := uuid.New()
	repo.doctors[id] = &Doctor{
		ID:   id,
		Name: "Dr. Reyes",
		Availability: []DayAvailability{
			{
				Day:         "Monday",
				IsAvailable: true,
				TimeSlots: []TimeSlot{
					{StartTime: "09:00", EndTime: "11:00", MaxPatients: 4},
					{StartTime: "11:00", EndTime: "13:00", MaxPatients: 4},
				},
			},
		},
	}
	return id
}

// 2025-06-02 is a Monday.
var testMonday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func newTestScheduler(repo *fakeRepo, maxRetries int) *Scheduler {
	s := NewScheduler(repo, maxRetries)
	s.now = func() time.Time { return testMonday }
	return s
}

func TestBookAssignsSequentialQueueNumbers(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)

	first, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, first.QueueNumber)
	assert.Equal(t, "09:00", first.EstimatedTime)
	assert.Equal(t, StatusPending, first.Status)

	second, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, second.QueueNumber)
	assert.Equal(t, "09:30", second.EstimatedTime)
}

func TestBookRejectsWhenScheduleElapsed(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)

	// 09:00-13:00 at 30 minutes each fits exactly 8 consultations;
	// position 8 is estimated at 12:30, position 9 would land on 13:00.
	for i := 1; i <= 8; i++ {
		appt, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
		require.NoError(t, err)
		assert.Equal(t, i, appt.QueueNumber)
	}

	eighth := repo.appointments
	var last *Appointment
	for _, a := range eighth {
		if a.QueueNumber == 8 {
			last = a
		}
	}
	require.NotNil(t, last)
	assert.Equal(t, "12:30", last.EstimatedTime)

	_, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
	assert.ErrorIs(t, err, ErrSlotsExhausted)
}

func TestBookUnavailableDay(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)

	tuesday := testMonday.AddDate(0, 0, 1)
	_, err := s.Book(context.Background(), doctorID, uuid.New(), tuesday, 30)
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestBookRejectsPastDay(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)

	lastMonday := testMonday.AddDate(0, 0, -7)
	_, err := s.Book(context.Background(), doctorID, uuid.New(), lastMonday, 30)
	assert.ErrorIs(t, err, ErrPastDay)
}

func TestBookUnknownDoctor(t *testing.T) {
	repo := newFakeRepo()
	s := newTestScheduler(repo, 5)

	_, err := s.Book(context.Background(), uuid.New(), uuid.New(), testMonday, 30)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestBookRetriesOnQueueConflict(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)

	repo.forcedConflicts = 2

	appt, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, appt.QueueNumber)
	assert.Zero(t, repo.forcedConflicts)
}

func TestBookGivesUpAfterRetryBound(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 3)

	repo.forcedConflicts = 3

	_, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
	assert.ErrorIs(t, err, ErrQueueContention)
}

func TestBookRejectsSecondBookingSameDay(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)

	userID := uuid.New()
	_, err := s.Book(context.Background(), doctorID, userID, testMonday, 30)
	require.NoError(t, err)

	_, err = s.Book(context.Background(), doctorID, userID, testMonday, 30)
	assert.ErrorIs(t, err, ErrDuplicateBooking)
}

func TestBookDefaultsConsultationDuration(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)

	appt, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultConsultationMins, appt.ConsultationMins)
}

func TestCancelledNumbersAreNotReissued(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)
	lc := NewLifecycle(repo, nil)

	first, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
	require.NoError(t, err)

	second, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, second.QueueNumber)

	_, err = lc.Cancel(context.Background(), first.ID, first.UserID)
	require.NoError(t, err)

	// Queue number 1 stays burned; the next booking takes 3 and the
	// surviving estimate for number 2 is untouched.
	third, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, third.QueueNumber)

	kept, err := s.GetAppointment(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, "09:30", kept.EstimatedTime)
}

func TestDayOverview(t *testing.T) {
	repo := newFakeRepo()
	doctorID := seedDoctor(repo)
	s := newTestScheduler(repo, 5)

	_, err := s.Book(context.Background(), doctorID, uuid.New(), testMonday, 30)
	require.NoError(t, err)

	template, capacity, active, err := s.DayOverview(context.Background(), doctorID, testMonday)
	require.NoError(t, err)
	require.NotNil(t, template)
	assert.Equal(t, 8, capacity)
	assert.Equal(t, 1, active)

	// Unavailable day: nil template, zero figures.
	template, capacity, active, err = s.DayOverview(context.Background(), doctorID, testMonday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, template)
	assert.Zero(t, capacity)
	assert.Zero(t, active)
}

func TestEstimateTimeLongDuration(t *testing.T) {
	template := &DayAvailability{
		Day:         "Monday",
		IsAvailable: true,
		TimeSlots:   []TimeSlot{{StartTime: "09:00", EndTime: "23:00", MaxPatients: 50}},
	}

	// 9:00 + 15 * 60min = next day; rejected even though the slot window
	// claims room.
	_, err := estimateTime(template, 16, 60)
	assert.ErrorIs(t, err, ErrSlotsExhausted)

	got, err := estimateTime(template, 14, 60)
	require.NoError(t, err)
	assert.Equal(t, "22:00", got)
}
