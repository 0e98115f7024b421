package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyUrgency(t *testing.T) {
	cases := []struct {
		name     string
		stock    int
		level    int
		expected Urgency
	}{
		{"out of stock", 0, 10, UrgencyHigh},
		{"negative stock", -3, 10, UrgencyHigh},
		{"at half threshold", 5, 10, UrgencyMedium},
		{"below half threshold", 4, 10, UrgencyMedium},
		{"above half threshold", 6, 10, UrgencyLow},
		{"at threshold", 10, 10, UrgencyLow},
		{"legacy zero threshold", 3, 0, UrgencyHigh},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Medicine{Stock: tc.stock, ReorderLevel: tc.level}
			assert.Equal(t, tc.expected, ClassifyUrgency(m))
		})
	}
}

func TestValidateMedicine(t *testing.T) {
	valid := Medicine{Name: "Amoxicillin 500mg", Stock: 40, ReorderLevel: 10, ReorderQuantity: 50, SupplierPrice: 8.5}
	assert.NoError(t, ValidateMedicine(&valid))

	cases := []struct {
		name string
		m    Medicine
	}{
		{"missing name", Medicine{ReorderLevel: 10}},
		{"negative stock", Medicine{Name: "X", Stock: -1, ReorderLevel: 10}},
		{"zero reorder level", Medicine{Name: "X", Stock: 5, ReorderLevel: 0}},
		{"negative reorder quantity", Medicine{Name: "X", Stock: 5, ReorderLevel: 10, ReorderQuantity: -1}},
		{"negative price", Medicine{Name: "X", Stock: 5, ReorderLevel: 10, SupplierPrice: -0.5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMedicine(&tc.m)
			assert.ErrorIs(t, err, ErrInvalidMedicine)
		})
	}
}

func TestMonitorScan(t *testing.T) {
	repo := newFakeInventoryRepo()
	low := seedMedicine(repo, 3, 10)
	seedMedicine(repo, 50, 10)

	medicines, err := NewMonitor(repo).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, medicines, 1)
	assert.Equal(t, low, medicines[0].ID)
}
