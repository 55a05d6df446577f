package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Rajvansh-1/starbucks-rewards-api/models"
)

// Quote is the authoritative price breakdown for a cart. All currency values
// are rounded to 2 decimal places; RewardsEarned is floored so earned stars
// never exceed the proportional amount.
type Quote struct {
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	Tip           float64 `json:"tip"`
	DeliveryFee   float64 `json:"delivery_fee"`
	RewardsUsed   int     `json:"rewards_used"`
	RewardsEarned int     `json:"rewards_earned"`
	Total         float64 `json:"total"`
}

// PricingService computes order totals from snapshotted item prices. It is a
// pure calculator: balance checks against the rewards ledger happen elsewhere.
type PricingService struct {
	taxRate     decimal.Decimal
	deliveryFee decimal.Decimal
	accrualRate decimal.Decimal
}

// NewPricingService builds a calculator from the configured rates.
func NewPricingService(taxRate, deliveryFee, accrualRate float64) *PricingService {
	return &PricingService{
		taxRate:     decimal.NewFromFloat(taxRate),
		deliveryFee: decimal.NewFromFloat(deliveryFee),
		accrualRate: decimal.NewFromFloat(accrualRate),
	}
}

var pricingServiceInstance *PricingService

// InitPricingService initializes the global pricing service from config values
func InitPricingService(taxRate, deliveryFee, accrualRate float64) *PricingService {
	pricingServiceInstance = NewPricingService(taxRate, deliveryFee, accrualRate)
	return pricingServiceInstance
}

// GetPricingService returns the initialized pricing service instance
func GetPricingService() *PricingService {
	return pricingServiceInstance
}

// PriceCart prices a validated cart. Items must carry their snapshot
// UnitPrice and Quantity; rewardsUsed is the requested redemption in stars
// (one star reduces the total by one currency unit). LineTotal is filled in
// on each item as a side effect.
//
// total = subtotal + tax + tip + deliveryFee - rewardsUsed, and must be >= 0.
func (s *PricingService) PriceCart(items []models.OrderItem, orderType string, tip float64, rewardsUsed int) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if tip < 0 {
		return nil, fmt.Errorf("%w: tip must not be negative", ErrInvalidInput)
	}
	if rewardsUsed < 0 {
		return nil, fmt.Errorf("%w: rewards_used must not be negative", ErrInvalidInput)
	}

	subtotal := decimal.Zero
	for i := range items {
		if items[i].Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
		}
		line := decimal.NewFromFloat(items[i].UnitPrice).Mul(decimal.NewFromInt(int64(items[i].Quantity))).Round(2)
		items[i].LineTotal = line.InexactFloat64()
		subtotal = subtotal.Add(line)
	}
	subtotal = subtotal.Round(2)

	// Half-up rounding to 2 decimal places.
	tax := subtotal.Mul(s.taxRate).Round(2)

	fee := decimal.Zero
	if orderType == models.OrderTypeDelivery {
		fee = s.deliveryFee
	}

	// Earned stars are floored, never rounded, so they are always an integer
	// at or below the proportional amount.
	earned := subtotal.Mul(s.accrualRate).Floor().IntPart()
	if earned < 0 {
		earned = 0
	}

	tipDec := decimal.NewFromFloat(tip).Round(2)
	redemption := decimal.NewFromInt(int64(rewardsUsed))

	total := subtotal.Add(tax).Add(tipDec).Add(fee).Sub(redemption).Round(2)
	if total.IsNegative() {
		return nil, ErrInvalidPricing
	}

	return &Quote{
		Subtotal:      subtotal.InexactFloat64(),
		Tax:           tax.InexactFloat64(),
		Tip:           tipDec.InexactFloat64(),
		DeliveryFee:   fee.InexactFloat64(),
		RewardsUsed:   rewardsUsed,
		RewardsEarned: int(earned),
		Total:         total.InexactFloat64(),
	}, nil
}
