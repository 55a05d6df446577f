package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Rajvansh-1/starbucks-rewards-api/config"
	"github.com/Rajvansh-1/starbucks-rewards-api/models"
)

func setupRewardsTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// A single connection keeps every goroutine on the same in-memory
	// database during concurrency tests.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

func createRewardsCustomer(t *testing.T, db *gorm.DB, stars int, lifetimeSpend float64) *models.User {
	t.Helper()
	user := models.User{
		Auth0ID:       "auth0|rewards-" + t.Name(),
		Name:          "Rewards Customer",
		Email:         t.Name() + "@example.com",
		Role:          models.RoleCustomer,
		Stars:         stars,
		Tier:          models.TierGreen,
		LifetimeSpend: lifetimeSpend,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestReserve_Success(t *testing.T) {
	db := setupRewardsTestDB(t)
	service := NewRewardsService(300)
	customer := createRewardsCustomer(t, db, 100, 0)

	err := service.Reserve(customer.ID, 40)
	assert.NoError(t, err)

	var updated models.User
	db.First(&updated, customer.ID)
	assert.Equal(t, 60, updated.Stars)
}

func TestReserve_InsufficientStars(t *testing.T) {
	db := setupRewardsTestDB(t)
	service := NewRewardsService(300)
	customer := createRewardsCustomer(t, db, 100, 0)

	err := service.Reserve(customer.ID, 500)
	assert.True(t, errors.Is(err, ErrInsufficientStars))

	// Balance untouched by the failed reservation
	var updated models.User
	db.First(&updated, customer.ID)
	assert.Equal(t, 100, updated.Stars)
}

func TestReserve_UnknownCustomer(t *testing.T) {
	setupRewardsTestDB(t)
	service := NewRewardsService(300)

	err := service.Reserve(99999, 10)
	assert.True(t, errors.Is(err, ErrCustomerNotFound))
}

func TestReserve_ZeroIsNoOp(t *testing.T) {
	db := setupRewardsTestDB(t)
	service := NewRewardsService(300)
	customer := createRewardsCustomer(t, db, 10, 0)

	assert.NoError(t, service.Reserve(customer.ID, 0))

	var updated models.User
	db.First(&updated, customer.ID)
	assert.Equal(t, 10, updated.Stars)
}

// Redemption is exclusive: with a balance of N, two concurrent reservations
// for N stars must produce exactly one success and one InsufficientStars.
func TestReserve_ConcurrentRedemptionIsExclusive(t *testing.T) {
	db := setupRewardsTestDB(t)
	service := NewRewardsService(300)
	customer := createRewardsCustomer(t, db, 100, 0)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = service.Reserve(customer.ID, 100)
		}(i)
	}
	wg.Wait()

	successes := 0
	insufficient := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else if errors.Is(err, ErrInsufficientStars) {
			insufficient++
		}
	}
	assert.Equal(t, 1, successes, "exactly one redemption must win")
	assert.Equal(t, 1, insufficient, "the loser must see InsufficientStars")

	var updated models.User
	db.First(&updated, customer.ID)
	assert.Equal(t, 0, updated.Stars)
	assert.GreaterOrEqual(t, updated.Stars, 0)
}

func TestCredit_AddsStarsAndSpend(t *testing.T) {
	db := setupRewardsTestDB(t)
	service := NewRewardsService(300)
	customer := createRewardsCustomer(t, db, 5, 50)

	err := service.Credit(customer.ID, 2, 100.00)
	assert.NoError(t, err)

	var updated models.User
	db.First(&updated, customer.ID)
	assert.Equal(t, 7, updated.Stars)
	assert.Equal(t, 150.00, updated.LifetimeSpend)
	assert.Equal(t, models.TierGreen, updated.Tier)
}

func TestCredit_UpgradesTierAtThreshold(t *testing.T) {
	db := setupRewardsTestDB(t)
	service := NewRewardsService(300)
	customer := createRewardsCustomer(t, db, 0, 250)

	// Crossing 300 lifetime spend flips green -> gold
	err := service.Credit(customer.ID, 1, 50.00)
	assert.NoError(t, err)

	var updated models.User
	db.First(&updated, customer.ID)
	assert.Equal(t, models.TierGold, updated.Tier)

	// Tier never downgrades, even with zero-spend credits afterwards
	assert.NoError(t, service.Credit(customer.ID, 0, 0))
	db.First(&updated, customer.ID)
	assert.Equal(t, models.TierGold, updated.Tier)
}

func TestRefundForOrder_RefundsExactlyOnce(t *testing.T) {
	db := setupRewardsTestDB(t)
	service := NewRewardsService(300)
	customer := createRewardsCustomer(t, db, 0, 0)

	order := models.Order{
		OrderNumber: "SB-000001",
		CustomerID:  customer.ID,
		StoreID:     1,
		Status:      models.StatusCancelled,
		Subtotal:    20,
		Total:       10,
		RewardsUsed: 10,
	}
	require.NoError(t, db.Create(&order).Error)

	assert.NoError(t, service.RefundForOrder(&order))

	var updated models.User
	db.First(&updated, customer.ID)
	assert.Equal(t, 10, updated.Stars)

	// A retried refund is a no-op
	assert.NoError(t, service.RefundForOrder(&order))
	db.First(&updated, customer.ID)
	assert.Equal(t, 10, updated.Stars)
}

// A failed credit must not leave the settled flag behind: the flag and the
// credit commit together, so a retry can still pay out.
func TestRefundForOrder_FailedCreditRollsBackSettledFlag(t *testing.T) {
	db := setupRewardsTestDB(t)
	service := NewRewardsService(300)
	customer := createRewardsCustomer(t, db, 0, 0)

	order := models.Order{
		OrderNumber: "SB-000003",
		CustomerID:  customer.ID,
		StoreID:     1,
		Status:      models.StatusCancelled,
		RewardsUsed: 10,
	}
	require.NoError(t, db.Create(&order).Error)

	// Make the credit fail: the ledger row is gone when the refund runs.
	require.NoError(t, db.Delete(&models.User{}, customer.ID).Error)

	err := service.RefundForOrder(&order)
	assert.True(t, errors.Is(err, ErrCustomerNotFound))

	// The claim rolled back together with the failed credit
	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.False(t, stored.RewardsSettled)
	assert.False(t, order.RewardsSettled)

	// Once the ledger row is back, a retry pays out, and exactly once
	require.NoError(t, db.Unscoped().Model(&models.User{}).
		Where("id = ?", customer.ID).
		Update("deleted_at", nil).Error)

	assert.NoError(t, service.RefundForOrder(&order))

	var updated models.User
	db.First(&updated, customer.ID)
	assert.Equal(t, 10, updated.Stars)

	assert.NoError(t, service.RefundForOrder(&order))
	db.First(&updated, customer.ID)
	assert.Equal(t, 10, updated.Stars)
}

func TestRefundForOrder_NothingToRefund(t *testing.T) {
	db := setupRewardsTestDB(t)
	service := NewRewardsService(300)
	customer := createRewardsCustomer(t, db, 3, 0)

	order := models.Order{
		OrderNumber: "SB-000002",
		CustomerID:  customer.ID,
		StoreID:     1,
		Status:      models.StatusCancelled,
		RewardsUsed: 0,
	}
	require.NoError(t, db.Create(&order).Error)

	assert.NoError(t, service.RefundForOrder(&order))

	var updated models.User
	db.First(&updated, customer.ID)
	assert.Equal(t, 3, updated.Stars)
}

func TestStatus_ReturnsLedgerView(t *testing.T) {
	db := setupRewardsTestDB(t)
	service := NewRewardsService(300)
	customer := createRewardsCustomer(t, db, 42, 120.50)

	status, err := service.Status(customer.ID)
	assert.NoError(t, err)
	assert.Equal(t, 42, status.Stars)
	assert.Equal(t, models.TierGreen, status.Tier)
	assert.Equal(t, 120.50, status.LifetimeSpend)

	_, err = service.Status(99999)
	assert.True(t, errors.Is(err, ErrCustomerNotFound))
}
