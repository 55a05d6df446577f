package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rajvansh-1/starbucks-rewards-api/models"
)

func newTestPricing() *PricingService {
	// 8.5% tax, $3.99 delivery fee, 2 stars per $100
	return NewPricingService(0.085, 3.99, 0.02)
}

func TestPriceCart_DeliveryOrder(t *testing.T) {
	pricing := newTestPricing()

	// $100.00 subtotal, $2.00 tip, delivery, 10 stars redeemed
	items := []models.OrderItem{
		{ProductID: 1, Quantity: 4, UnitPrice: 20.00},
		{ProductID: 2, Quantity: 2, UnitPrice: 10.00},
	}

	quote, err := pricing.PriceCart(items, models.OrderTypeDelivery, 2.00, 10)
	assert.NoError(t, err)

	assert.Equal(t, 100.00, quote.Subtotal)
	assert.Equal(t, 8.50, quote.Tax)
	assert.Equal(t, 2.00, quote.Tip)
	assert.Equal(t, 3.99, quote.DeliveryFee)
	assert.Equal(t, 10, quote.RewardsUsed)
	assert.Equal(t, 2, quote.RewardsEarned) // floor(100 * 0.02)
	assert.Equal(t, 104.49, quote.Total)

	// Line totals are filled in as a side effect
	assert.Equal(t, 80.00, items[0].LineTotal)
	assert.Equal(t, 20.00, items[1].LineTotal)
}

func TestPriceCart_PickupHasNoDeliveryFee(t *testing.T) {
	pricing := newTestPricing()

	items := []models.OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: 5.00}}

	quote, err := pricing.PriceCart(items, models.OrderTypePickup, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, quote.DeliveryFee)
	assert.Equal(t, 5.43, quote.Total) // 5.00 + 0.43 tax
}

func TestPriceCart_TaxRoundsHalfUp(t *testing.T) {
	pricing := newTestPricing()

	// 4.30 * 0.085 = 0.3655 -> 0.37 with half-up rounding
	items := []models.OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: 4.30}}

	quote, err := pricing.PriceCart(items, models.OrderTypePickup, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0.37, quote.Tax)
}

func TestPriceCart_RewardsEarnedIsFloored(t *testing.T) {
	pricing := newTestPricing()

	tests := []struct {
		name     string
		subtotal float64
		expected int
	}{
		{"just below one star", 49.99, 0},
		{"exactly one star", 50.00, 1},
		{"fractional stars floor down", 99.99, 1},
		{"two stars", 100.00, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []models.OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: tt.subtotal}}
			quote, err := pricing.PriceCart(items, models.OrderTypePickup, 0, 0)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, quote.RewardsEarned)
		})
	}
}

func TestPriceCart_EmptyCart(t *testing.T) {
	pricing := newTestPricing()

	_, err := pricing.PriceCart(nil, models.OrderTypePickup, 0, 0)
	assert.True(t, errors.Is(err, ErrEmptyCart))
}

func TestPriceCart_NegativeTotalRejected(t *testing.T) {
	pricing := newTestPricing()

	// Redeeming 50 stars against a ~$5.43 order would go negative
	items := []models.OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: 5.00}}

	_, err := pricing.PriceCart(items, models.OrderTypePickup, 0, 50)
	assert.True(t, errors.Is(err, ErrInvalidPricing))
}

func TestPriceCart_InvalidInput(t *testing.T) {
	pricing := newTestPricing()
	items := []models.OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: 5.00}}

	_, err := pricing.PriceCart(items, models.OrderTypePickup, -1.00, 0)
	assert.True(t, errors.Is(err, ErrInvalidInput), "negative tip")

	_, err = pricing.PriceCart(items, models.OrderTypePickup, 0, -5)
	assert.True(t, errors.Is(err, ErrInvalidInput), "negative redemption")

	bad := []models.OrderItem{{ProductID: 1, Quantity: 0, UnitPrice: 5.00}}
	_, err = pricing.PriceCart(bad, models.OrderTypePickup, 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidInput), "zero quantity")
}

func TestPriceCart_TotalInvariantHolds(t *testing.T) {
	pricing := newTestPricing()

	items := []models.OrderItem{
		{ProductID: 1, Quantity: 3, UnitPrice: 4.75},
		{ProductID: 2, Quantity: 1, UnitPrice: 6.25},
	}

	quote, err := pricing.PriceCart(items, models.OrderTypeDelivery, 1.50, 5)
	assert.NoError(t, err)

	// total = subtotal + tax + tip + deliveryFee - rewardsUsed
	expected := quote.Subtotal + quote.Tax + quote.Tip + quote.DeliveryFee - float64(quote.RewardsUsed)
	assert.InDelta(t, expected, quote.Total, 0.001)
	assert.GreaterOrEqual(t, quote.Total, 0.0)
}
