package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrder(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := NewOrderService(repo)

	first := seedMedicine(repo, 10, 5)
	second := seedMedicine(repo, 20, 5)

	order, err := svc.PlaceOrder(context.Background(), uuid.New(), []OrderLine{
		{MedicineID: first, Quantity: 3},
		{MedicineID: second, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 5*4.0, order.Total)
	assert.Equal(t, "placed", order.Status)

	assert.Equal(t, 7, repo.medicines[first].Stock)
	assert.Equal(t, 18, repo.medicines[second].Stock)
}

func TestGetOrder(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := NewOrderService(repo)

	id := seedMedicine(repo, 10, 5)
	placed, err := svc.PlaceOrder(context.Background(), uuid.New(), []OrderLine{
		{MedicineID: id, Quantity: 2},
	})
	require.NoError(t, err)

	loaded, err := svc.GetOrder(context.Background(), placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.Total, loaded.Total)

	_, err = svc.GetOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPlaceOrderEmpty(t *testing.T) {
	svc := NewOrderService(newFakeInventoryRepo())

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := NewOrderService(repo)

	plenty := seedMedicine(repo, 10, 5)
	scarce := seedMedicine(repo, 1, 5)

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), []OrderLine{
		{MedicineID: plenty, Quantity: 4},
		{MedicineID: scarce, Quantity: 2},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// The first line's deduction is undone.
	assert.Equal(t, 10, repo.medicines[plenty].Stock)
	assert.Equal(t, 1, repo.medicines[scarce].Stock)
	assert.Empty(t, repo.orders)
}

func TestPlaceOrderUnknownMedicine(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := NewOrderService(repo)

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), []OrderLine{
		{MedicineID: uuid.New(), Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrMedicineNotFound)
}

func TestPlaceOrderCreateFailureRollsBack(t *testing.T) {
	repo := newFakeInventoryRepo()
	repo.failCreateOrder = true
	svc := NewOrderService(repo)

	id := seedMedicine(repo, 10, 5)

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), []OrderLine{
		{MedicineID: id, Quantity: 4},
	})
	require.Error(t, err)
	assert.Equal(t, 10, repo.medicines[id].Stock)
}

func TestPlaceOrderNonPositiveQuantity(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := NewOrderService(repo)

	id := seedMedicine(repo, 10, 5)

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), []OrderLine{
		{MedicineID: id, Quantity: 0},
	})
	require.Error(t, err)
	assert.Equal(t, 10, repo.medicines[id].Stock)
}
