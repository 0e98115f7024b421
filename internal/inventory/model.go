package inventory

import (
	"time"

	"github.com/google/uuid"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

type ReorderStatus string

const (
	ReorderPending   ReorderStatus = "pending"
	ReorderApproved  ReorderStatus = "approved"
	ReorderCompleted ReorderStatus = "completed"
	ReorderCancelled ReorderStatus = "cancelled"
)

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationRestocked NotificationStatus = "restocked"
)

const DefaultRestockQuantity = 50

type Medicine struct {
	ID                 uuid.UUID
	Name               string
	Stock              int
	ReorderLevel       int
	ReorderQuantity    int
	SupplierPrice      float64
	NotificationStatus NotificationStatus
	LastRestocked      *time.Time
	LastReorderRequest *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type RestockEntry struct {
	ID          int64
	MedicineID  uuid.UUID
	Date        time.Time
	Quantity    int
	TotalAmount float64
	BillNo      string
	Status      string
}

type ReorderRequest struct {
	ID               uuid.UUID
	MedicineID       uuid.UUID
	Quantity         int
	Urgency          Urgency
	Status           ReorderStatus
	ExpectedDelivery time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ReorderHistoryEntry struct {
	ID        int64
	RequestID uuid.UUID
	Status    string
	Date      time.Time
	UpdatedBy string
	Notes     string
}

type Order struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Total     float64
	Status    string
	Items     []OrderItem
	CreatedAt time.Time
}

type OrderItem struct {
	MedicineID uuid.UUID
	Quantity   int
	UnitPrice  float64
}
