package billing

import (
	"testing"

	"github.com/poskit/billingd/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	items := []domain.CartItem{
		{ProductID: "a", Name: "Product A", UnitPrice: 100, Quantity: 2},
		{ProductID: "b", Name: "Product B", UnitPrice: 50, Quantity: 1},
	}

	bill := Calculate(items, 10)
	assert.Equal(t, 250.0, bill.Subtotal)
	assert.Equal(t, 25.0, bill.DiscountAmount)
	assert.Equal(t, 225.0, bill.Total)
}

func TestCalculateEmptyCart(t *testing.T) {
	bill := Calculate(nil, 50)
	assert.Equal(t, 0.0, bill.Subtotal)
	assert.Equal(t, 0.0, bill.DiscountAmount)
	assert.Equal(t, 0.0, bill.Total)
}

func TestCalculateNoDiscount(t *testing.T) {
	items := []domain.CartItem{{ProductID: "a", UnitPrice: 19.99, Quantity: 3}}
	bill := Calculate(items, 0)
	assert.Equal(t, bill.Subtotal, bill.Total)
	assert.Equal(t, 0.0, bill.DiscountAmount)
}

// Calling twice on the same inputs must yield identical output: the
// calculator keeps no hidden state.
func TestCalculateIdempotent(t *testing.T) {
	items := []domain.CartItem{
		{ProductID: "a", UnitPrice: 3.33, Quantity: 7},
		{ProductID: "b", UnitPrice: 12.5, Quantity: 2},
	}
	first := Calculate(items, 15)
	second := Calculate(items, 15)
	assert.Equal(t, first, second)
}

func TestCalculateTotalIsSubtotalMinusDiscount(t *testing.T) {
	items := []domain.CartItem{
		{ProductID: "a", UnitPrice: 42.42, Quantity: 3},
		{ProductID: "b", UnitPrice: 0.01, Quantity: 99},
	}
	for _, discount := range []float64{0, 5, 12.5, 100} {
		bill := Calculate(items, discount)
		assert.Equal(t, bill.Subtotal-bill.DiscountAmount, bill.Total)
		assert.Equal(t, bill.Subtotal*discount/100, bill.DiscountAmount)
	}
}

func TestClampDiscount(t *testing.T) {
	assert.Equal(t, 0.0, clampDiscount(-5))
	assert.Equal(t, 100.0, clampDiscount(150))
	assert.Equal(t, 42.5, clampDiscount(42.5))
}
