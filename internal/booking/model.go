package booking

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// TimeSlot is one bookable window inside a weekday template.
// Times are wall-clock "HH:MM" strings.
type TimeSlot struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	MaxPatients int    `json:"maxPatients"`
}

// DayAvailability is a doctor's template for one weekday. At most one entry
// per weekday exists on a doctor; slots keep their insertion order.
type DayAvailability struct {
	Day         string     `json:"day"`
	IsAvailable bool       `json:"isAvailable"`
	TimeSlots   []TimeSlot `json:"timeSlots"`
}

type Doctor struct {
	ID           uuid.UUID
	Name         string
	Specialty    *string
	Availability []DayAvailability
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Appointment struct {
	ID               uuid.UUID
	DoctorID         uuid.UUID
	UserID           uuid.UUID
	Day              time.Time // calendar day, time-truncated
	QueueNumber      int
	EstimatedTime    string // "HH:MM"
	Status           AppointmentStatus
	ConsultationMins int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
