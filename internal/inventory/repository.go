package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrReorderNotFound  = errors.New("reorder request not found")
	ErrOrderNotFound    = errors.New("order not found")

	// ErrInsufficientStock is raised when a conditional decrement matches no
	// row; stock is never driven negative.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAlreadyFinal means a reorder request is in a terminal status and
	// cannot transition again; in particular re-completion never re-applies
	// the stock increment.
	ErrAlreadyFinal = errors.New("reorder request already finalized")
)

// Repository contains all DB interactions needed by the inventory services.
type Repository interface {
	CreateMedicine(ctx context.Context, m *Medicine) (*Medicine, error)
	GetMedicineByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	ListBelowReorderLevel(ctx context.Context) ([]Medicine, error)

	// DeductStock decrements conditionally (stock >= qty) in one statement.
	DeductStock(ctx context.Context, id uuid.UUID, qty int) (*Medicine, error)
	// RestoreStock undoes a deduction when a later order line fails.
	RestoreStock(ctx context.Context, id uuid.UUID, qty int) error

	// ApplyRestock atomically credits the medicine's reorder quantity
	// (DefaultRestockQuantity when unset), clears the open reorder marker and
	// appends a restock history row, all in one transaction.
	ApplyRestock(ctx context.Context, id uuid.UUID, billNo string, at time.Time) (*Medicine, error)
	ListRestockHistory(ctx context.Context, medicineID uuid.UUID) ([]RestockEntry, error)

	// CreatePendingReorder relies on the pending partial unique index: when a
	// pending request already exists it returns that one with created=false.
	CreatePendingReorder(ctx context.Context, req *ReorderRequest) (*ReorderRequest, bool, error)
	GetPendingReorderForMedicine(ctx context.Context, medicineID uuid.UUID) (*ReorderRequest, error)
	GetReorderByID(ctx context.Context, id uuid.UUID) (*ReorderRequest, error)
	ListReordersByStatus(ctx context.Context, status ReorderStatus) ([]ReorderRequest, error)

	// TransitionReorder moves a request to a new status with a CAS guard on
	// non-terminal rows; the completed transition credits the medicine's
	// stock by the request quantity inside the same transaction.
	TransitionReorder(ctx context.Context, id uuid.UUID, to ReorderStatus, updatedBy, notes string) (*ReorderRequest, error)
	AppendReorderHistory(ctx context.Context, entry ReorderHistoryEntry) error
	ListReorderHistory(ctx context.Context, requestID uuid.UUID) ([]ReorderHistoryEntry, error)

	MarkReorderRequested(ctx context.Context, medicineID uuid.UUID, at time.Time) error

	CreateOrder(ctx context.Context, order *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
}
