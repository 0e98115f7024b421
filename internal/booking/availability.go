package booking

import (
	"fmt"
	"strings"
	"time"
)

// DayTemplate resolves a date to its weekday and returns the doctor's matching
// availability entry. A nil return means "not bookable on that day", which is
// an expected outcome rather than an error.
func DayTemplate(doc *Doctor, date time.Time) *DayAvailability {
	weekday := date.Weekday().String()
	for i := range doc.Availability {
		entry := &doc.Availability[i]
		if !strings.EqualFold(entry.Day, weekday) {
			continue
		}
		if !entry.IsAvailable {
			return nil
		}
		return entry
	}
	return nil
}

// TotalCapacity sums MaxPatients over slots that carry both times and a
// positive capacity. Partially filled slots contribute zero. This figure is
// informational; the booking cutoff is the elapsed-time check in the scheduler.
func TotalCapacity(day *DayAvailability) int {
	if day == nil {
		return 0
	}
	total := 0
	for _, slot := range day.TimeSlots {
		if slot.StartTime == "" || slot.EndTime == "" || slot.MaxPatients <= 0 {
			continue
		}
		total += slot.MaxPatients
	}
	return total
}

// ValidateAvailability rejects malformed weekly templates at write time:
// duplicate weekday entries, unknown weekday names, unparseable slot times,
// slots that end before they start, or non-positive capacities.
func ValidateAvailability(entries []DayAvailability) error {
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		day := strings.ToLower(entry.Day)
		if !validWeekdays[day] {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidAvailability, entry.Day)
		}
		if seen[day] {
			return fmt.Errorf("%w: duplicate entry for %s", ErrInvalidAvailability, entry.Day)
		}
		seen[day] = true

		for _, slot := range entry.TimeSlots {
			start, err := parseClock(slot.StartTime)
			if err != nil {
				return fmt.Errorf("%w: %s slot start: %v", ErrInvalidAvailability, entry.Day, err)
			}
			end, err := parseClock(slot.EndTime)
			if err != nil {
				return fmt.Errorf("%w: %s slot end: %v", ErrInvalidAvailability, entry.Day, err)
			}
			if end <= start {
				return fmt.Errorf("%w: %s slot %s-%s ends before it starts", ErrInvalidAvailability, entry.Day, slot.StartTime, slot.EndTime)
			}
			if slot.MaxPatients <= 0 {
				return fmt.Errorf("%w: %s slot %s has non-positive maxPatients", ErrInvalidAvailability, entry.Day, slot.StartTime)
			}
		}
	}
	return nil
}

var validWeekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}
