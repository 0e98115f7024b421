package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/queuecare/hospital-backend/internal/booking"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type BookAppointmentRequest struct {
	DoctorID        string `json:"doctor_id"`
	Date            string `json:"date"` // "2006-01-02"
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

type AppointmentResponse struct {
	ID            uuid.UUID `json:"id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	UserID        uuid.UUID `json:"user_id"`
	Date          string    `json:"date"`
	QueueNumber   int       `json:"queue_number"`
	EstimatedTime string    `json:"estimated_time"`
	Status        string    `json:"status"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		DoctorID:      a.DoctorID,
		UserID:        a.UserID,
		Date:          a.Day.Format("2006-01-02"),
		QueueNumber:   a.QueueNumber,
		EstimatedTime: a.EstimatedTime,
		Status:        string(a.Status),
	}
}

type AvailabilityResponse struct {
	Date           string                   `json:"date"`
	Bookable       bool                     `json:"bookable"`
	Template       *booking.DayAvailability `json:"template,omitempty"`
	TotalCapacity  int                      `json:"total_capacity"`
	ActiveBookings int                      `json:"active_bookings"`
}

type SetAvailabilityRequest struct {
	Availability []booking.DayAvailability `json:"availability"`
}

type CreateMedicineRequest struct {
	Name            string  `json:"name"`
	Stock           int     `json:"stock"`
	ReorderLevel    int     `json:"reorder_level"`
	ReorderQuantity int     `json:"reorder_quantity"`
	SupplierPrice   float64 `json:"supplier_price"`
}

type MedicineResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Stock              int        `json:"stock"`
	ReorderLevel       int        `json:"reorder_level"`
	ReorderQuantity    int        `json:"reorder_quantity"`
	SupplierPrice      float64    `json:"supplier_price"`
	NotificationStatus string     `json:"notification_status"`
	Urgency            string     `json:"urgency,omitempty"`
	LastRestocked      *time.Time `json:"last_restocked,omitempty"`
}

type PlaceOrderRequest struct {
	Items []OrderLineRequest `json:"items"`
}

type OrderLineRequest struct {
	MedicineID string `json:"medicine_id"`
	Quantity   int    `json:"quantity"`
}

type OrderResponse struct {
	ID     uuid.UUID           `json:"id"`
	Total  float64             `json:"total"`
	Status string              `json:"status"`
	Items  []OrderItemResponse `json:"items"`
}

type OrderItemResponse struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
}

type ReorderResponse struct {
	ID               uuid.UUID `json:"id"`
	MedicineID       uuid.UUID `json:"medicine_id"`
	Quantity         int       `json:"quantity"`
	Urgency          string    `json:"urgency"`
	Status           string    `json:"status"`
	ExpectedDelivery string    `json:"expected_delivery"`
}

type UpdateReorderStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type ScanResponse struct {
	Initiated int `json:"initiated"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
