package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

var ErrEmptyOrder = errors.New("order has no items")

// OrderService handles checkout against the pharmacy inventory. Stock is
// decremented per item with a conditional update, so it can never go
// negative; an insufficient line rejects the whole order before any rows are
// written.
type OrderService struct {
	repo Repository
}

func NewOrderService(repo Repository) *OrderService {
	return &OrderService{repo: repo}
}

type OrderLine struct {
	MedicineID uuid.UUID
	Quantity   int
}

func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, lines []OrderLine) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	order := &Order{
		UserID: userID,
		Status: "placed",
	}

	var deducted []OrderLine
	for _, line := range lines {
		if line.Quantity <= 0 {
			s.rollbackDeductions(ctx, deducted)
			return nil, fmt.Errorf("%w: non-positive quantity for %s", ErrEmptyOrder, line.MedicineID)
		}

		m, err := s.repo.DeductStock(ctx, line.MedicineID, line.Quantity)
		if err != nil {
			s.rollbackDeductions(ctx, deducted)
			if errors.Is(err, ErrInsufficientStock) {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, line.MedicineID)
			}
			return nil, err
		}
		deducted = append(deducted, line)

		order.Items = append(order.Items, OrderItem{
			MedicineID: line.MedicineID,
			Quantity:   line.Quantity,
			UnitPrice:  m.SupplierPrice,
		})
		order.Total += float64(line.Quantity) * m.SupplierPrice
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		s.rollbackDeductions(ctx, deducted)
		return nil, fmt.Errorf("create order: %w", err)
	}

	return created, nil
}

// GetOrder loads one order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

// rollbackDeductions restores stock already taken by earlier lines of a
// failed order. Each restore is a plain increment, safe to apply at most once
// per deducted line.
func (s *OrderService) rollbackDeductions(ctx context.Context, deducted []OrderLine) {
	for _, line := range deducted {
		if err := s.repo.RestoreStock(ctx, line.MedicineID, line.Quantity); err != nil {
			// Leaves the inventory short; an operator has to reconcile.
			log.Printf("failed to restore stock medicine=%s qty=%d: %v", line.MedicineID, line.Quantity, err)
		}
	}
}
