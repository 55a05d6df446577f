package services

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/Rajvansh-1/starbucks-rewards-api/config"
	"github.com/Rajvansh-1/starbucks-rewards-api/models"
)

// RewardsStatus is the aggregate rewards view for a customer.
type RewardsStatus struct {
	Stars         int     `json:"stars"`
	Tier          string  `json:"tier"`
	LifetimeSpend float64 `json:"lifetime_spend"`
}

// RewardsService owns the star ledger. Every balance mutation is a single
// guarded UPDATE so that two concurrent redemptions can never both pass a
// balance check against a stale read; a per-customer lock additionally
// serializes multi-statement mutations (credit + tier recompute).
type RewardsService struct {
	goldThreshold float64
	locks         sync.Map // customer id -> *sync.Mutex
}

// NewRewardsService builds a ledger with the given gold-tier threshold.
func NewRewardsService(goldThreshold float64) *RewardsService {
	return &RewardsService{goldThreshold: goldThreshold}
}

var rewardsServiceInstance *RewardsService

// InitRewardsService initializes the global rewards service
func InitRewardsService(goldThreshold float64) *RewardsService {
	rewardsServiceInstance = NewRewardsService(goldThreshold)
	return rewardsServiceInstance
}

// GetRewardsService returns the initialized rewards service instance
func GetRewardsService() *RewardsService {
	return rewardsServiceInstance
}

func (s *RewardsService) lockFor(customerID uint) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(customerID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Reserve debits stars from the customer's balance. It fails with
// ErrInsufficientStars if the balance cannot cover the redemption. The debit
// is immediate, not two-phase: the caller has already validated pricing.
func (s *RewardsService) Reserve(customerID uint, stars int) error {
	if stars < 0 {
		return fmt.Errorf("%w: stars must not be negative", ErrInvalidInput)
	}
	if stars == 0 {
		return nil
	}

	lock := s.lockFor(customerID)
	lock.Lock()
	defer lock.Unlock()

	db := config.GetDB()

	// Guarded decrement: the WHERE clause re-checks the balance inside the
	// UPDATE itself, so a concurrent reservation cannot race past it.
	result := db.Model(&models.User{}).
		Where("id = ? AND stars >= ?", customerID, stars).
		UpdateColumn("stars", gorm.Expr("stars - ?", stars))
	if result.Error != nil {
		return fmt.Errorf("failed to reserve stars: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", customerID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up customer %d: %w", customerID, err)
		}
		if count == 0 {
			return ErrCustomerNotFound
		}
		return ErrInsufficientStars
	}

	return nil
}

// Credit adds earned stars to the balance, increments lifetime spend by the
// order's subtotal, and recomputes the tier. Credit always succeeds for an
// existing customer.
func (s *RewardsService) Credit(customerID uint, stars int, spend float64) error {
	if stars < 0 || spend < 0 {
		return fmt.Errorf("%w: credit amounts must not be negative", ErrInvalidInput)
	}

	lock := s.lockFor(customerID)
	lock.Lock()
	defer lock.Unlock()

	db := config.GetDB()

	result := db.Model(&models.User{}).
		Where("id = ?", customerID).
		UpdateColumns(map[string]interface{}{
			"stars":          gorm.Expr("stars + ?", stars),
			"lifetime_spend": gorm.Expr("lifetime_spend + ?", spend),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to credit stars: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCustomerNotFound
	}

	// Tier is a pure function of lifetime spend. It only ever upgrades.
	if err := db.Model(&models.User{}).
		Where("id = ? AND lifetime_spend >= ? AND tier = ?", customerID, s.goldThreshold, models.TierGreen).
		UpdateColumn("tier", models.TierGold).Error; err != nil {
		return fmt.Errorf("failed to recompute tier: %w", err)
	}

	return nil
}

// RefundForOrder returns an order's redeemed stars to its customer after
// cancellation. The refund is idempotent per order: the rewards_settled flag
// is flipped with a guarded UPDATE, and a second call is a no-op.
func (s *RewardsService) RefundForOrder(order *models.Order) error {
	if order.RewardsUsed == 0 {
		return nil
	}

	lock := s.lockFor(order.CustomerID)
	lock.Lock()
	defer lock.Unlock()

	db := config.GetDB()

	// The flag flip and the credit commit or roll back together: a settled
	// flag without the matching credit would lose the refund, since callers
	// treat the flag as authoritative.
	err := db.Transaction(func(tx *gorm.DB) error {
		// Claim the refund. Whoever flips the flag performs the credit;
		// everyone else sees rows_affected == 0 and does nothing.
		result := tx.Model(&models.Order{}).
			Where("id = ? AND rewards_settled = ?", order.ID, false).
			UpdateColumn("rewards_settled", true)
		if result.Error != nil {
			return fmt.Errorf("failed to settle rewards for order %d: %w", order.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			// Already refunded
			return nil
		}

		credit := tx.Model(&models.User{}).
			Where("id = ?", order.CustomerID).
			UpdateColumn("stars", gorm.Expr("stars + ?", order.RewardsUsed))
		if credit.Error != nil {
			return fmt.Errorf("failed to refund stars for order %d: %w", order.ID, credit.Error)
		}
		if credit.RowsAffected == 0 {
			return fmt.Errorf("refund for order %d: %w", order.ID, ErrCustomerNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.RewardsSettled = true
	return nil
}

// Status returns the customer's current stars, tier and lifetime spend from
// the authoritative store.
func (s *RewardsService) Status(customerID uint) (*RewardsStatus, error) {
	db := config.GetDB()

	var user models.User
	if err := db.First(&user, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}

	return &RewardsStatus{
		Stars:         user.Stars,
		Tier:          user.Tier,
		LifetimeSpend: user.LifetimeSpend,
	}, nil
}
