package inventory

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidMedicine = errors.New("invalid medicine")

// Monitor runs point-in-time low-stock queries; no caching.
type Monitor struct {
	repo Repository
}

func NewMonitor(repo Repository) *Monitor {
	return &Monitor{repo: repo}
}

// Scan returns every medicine at or below its reorder level.
func (m *Monitor) Scan(ctx context.Context) ([]Medicine, error) {
	return m.repo.ListBelowReorderLevel(ctx)
}

// ClassifyUrgency grades restock priority from the stock-to-threshold ratio.
// A zero reorder level is rejected at write time; rows that predate that
// validation grade as high rather than dividing by zero.
func ClassifyUrgency(m Medicine) Urgency {
	if m.Stock <= 0 {
		return UrgencyHigh
	}
	if m.ReorderLevel <= 0 {
		return UrgencyHigh
	}
	if float64(m.Stock)/float64(m.ReorderLevel) <= 0.5 {
		return UrgencyMedium
	}
	return UrgencyLow
}

// ValidateMedicine guards the write path: names are required, stock cannot
// start negative and the reorder level must be positive so urgency
// classification stays defined.
func ValidateMedicine(m *Medicine) error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMedicine)
	}
	if m.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidMedicine)
	}
	if m.ReorderLevel <= 0 {
		return fmt.Errorf("%w: reorder level must be positive", ErrInvalidMedicine)
	}
	if m.ReorderQuantity < 0 {
		return fmt.Errorf("%w: reorder quantity cannot be negative", ErrInvalidMedicine)
	}
	if m.SupplierPrice < 0 {
		return fmt.Errorf("%w: supplier price cannot be negative", ErrInvalidMedicine)
	}
	return nil
}
