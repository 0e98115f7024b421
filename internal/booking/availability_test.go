package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayTemplate(t *testing.T) {
	doc := &Doctor{
		Availability: []DayAvailability{
			{Day: "Monday", IsAvailable: true, TimeSlots: []TimeSlot{{StartTime: "09:00", EndTime: "12:00", MaxPatients: 6}}},
			{Day: "tuesday", IsAvailable: false},
		},
	}

	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	wednesday := monday.AddDate(0, 0, 2)

	tpl := DayTemplate(doc, monday)
	require.NotNil(t, tpl)
	assert.Equal(t, "Monday", tpl.Day)

	// Present but flagged unavailable; weekday match is case-insensitive.
	assert.Nil(t, DayTemplate(doc, tuesday))

	// No entry at all.
	assert.Nil(t, DayTemplate(doc, wednesday))
}

func TestTotalCapacity(t *testing.T) {
	day := &DayAvailability{
		Day:         "Monday",
		IsAvailable: true,
		TimeSlots: []TimeSlot{
			{StartTime: "09:00", EndTime: "12:00", MaxPatients: 6},
			{StartTime: "14:00", EndTime: "17:00", MaxPatients: 4},
			{StartTime: "18:00", EndTime: "", MaxPatients: 10}, // missing end, ignored
			{StartTime: "19:00", EndTime: "20:00", MaxPatients: 0},
		},
	}

	assert.Equal(t, 10, TotalCapacity(day))
	assert.Equal(t, 0, TotalCapacity(nil))
}

func TestValidateAvailability(t *testing.T) {
	valid := []DayAvailability{
		{Day: "Monday", IsAvailable: true, TimeSlots: []TimeSlot{{StartTime: "09:00", EndTime: "13:00", MaxPatients: 8}}},
		{Day: "Friday", IsAvailable: false},
	}
	assert.NoError(t, ValidateAvailability(valid))

	cases := []struct {
		name    string
		entries []DayAvailability
	}{
		{
			name: "unknown weekday",
			entries: []DayAvailability{
				{Day: "Funday", IsAvailable: true},
			},
		},
		{
			name: "duplicate weekday",
			entries: []DayAvailability{
				{Day: "Monday", IsAvailable: true},
				{Day: "monday", IsAvailable: false},
			},
		},
		{
			name: "bad start time",
			entries: []DayAvailability{
				{Day: "Monday", IsAvailable: true, TimeSlots: []TimeSlot{{StartTime: "9am", EndTime: "12:00", MaxPatients: 3}}},
			},
		},
		{
			name: "end before start",
			entries: []DayAvailability{
				{Day: "Monday", IsAvailable: true, TimeSlots: []TimeSlot{{StartTime: "12:00", EndTime: "09:00", MaxPatients: 3}}},
			},
		},
		{
			name: "non-positive capacity",
			entries: []DayAvailability{
				{Day: "Monday", IsAvailable: true, TimeSlots: []TimeSlot{{StartTime: "09:00", EndTime: "12:00", MaxPatients: 0}}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAvailability(tc.entries)
			assert.ErrorIs(t, err, ErrInvalidAvailability)
		})
	}
}
