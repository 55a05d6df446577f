package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeys_AreDeterministicAndDistinct(t *testing.T) {
	assert.Equal(t, RewardsStatusKey(7), RewardsStatusKey(7))

	keys := []CacheKey{
		RewardsStatusKey(1),
		CustomerOrderListKey(1, "", 1, 10),
		CustomerOrderListKey(1, "pending", 1, 10),
		CustomerOrderListKey(1, "pending", 2, 10),
		StoreOrderListKey(1, "pending", 1, 10),
		StoreOrderListKey(1, "", 1, 10),
	}

	seen := make(map[CacheKey]bool)
	for _, key := range keys {
		assert.False(t, seen[key], "key collision: %s", key)
		seen[key] = true
	}

	// Customer 12 must never collide with customer 1, store 2
	assert.NotEqual(t, CustomerOrderListKey(12, "", 1, 10), CustomerOrderListKey(1, "", 2, 10))
}

func TestCacheService_GetSet(t *testing.T) {
	cache := NewCacheService(time.Minute)

	key := RewardsStatusKey(1)

	_, hit := cache.Get(key)
	assert.False(t, hit)

	cache.Set(key, &RewardsStatus{Stars: 10, Tier: "green"})

	value, hit := cache.Get(key)
	assert.True(t, hit)
	status := value.(*RewardsStatus)
	assert.Equal(t, 10, status.Stars)
}

func TestCacheService_EntriesExpire(t *testing.T) {
	cache := NewCacheService(time.Minute)

	key := RewardsStatusKey(1)
	cache.SetWithTTL(key, "stale soon", 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	_, hit := cache.Get(key)
	assert.False(t, hit)
}

func TestCacheService_InvalidateCustomer(t *testing.T) {
	cache := NewCacheService(time.Minute)

	cache.Set(RewardsStatusKey(1), "rewards-1")
	cache.Set(CustomerOrderListKey(1, "pending", 1, 10), "orders-1")
	cache.Set(CustomerOrderListKey(2, "pending", 1, 10), "orders-2")
	cache.Set(StoreOrderListKey(5, "", 1, 10), "store-5")

	cache.InvalidateCustomer(1)

	_, hit := cache.Get(RewardsStatusKey(1))
	assert.False(t, hit)
	_, hit = cache.Get(CustomerOrderListKey(1, "pending", 1, 10))
	assert.False(t, hit)

	// Other customers and store views are untouched
	_, hit = cache.Get(CustomerOrderListKey(2, "pending", 1, 10))
	assert.True(t, hit)
	_, hit = cache.Get(StoreOrderListKey(5, "", 1, 10))
	assert.True(t, hit)
}

func TestCacheService_InvalidateStore(t *testing.T) {
	cache := NewCacheService(time.Minute)

	cache.Set(StoreOrderListKey(5, "", 1, 10), "store-5")
	cache.Set(StoreOrderListKey(5, "ready", 1, 10), "store-5-ready")
	cache.Set(StoreOrderListKey(6, "", 1, 10), "store-6")

	cache.InvalidateStore(5)

	_, hit := cache.Get(StoreOrderListKey(5, "", 1, 10))
	assert.False(t, hit)
	_, hit = cache.Get(StoreOrderListKey(5, "ready", 1, 10))
	assert.False(t, hit)
	_, hit = cache.Get(StoreOrderListKey(6, "", 1, 10))
	assert.True(t, hit)
}

func TestCacheService_Flush(t *testing.T) {
	cache := NewCacheService(time.Minute)

	cache.Set(RewardsStatusKey(1), "a")
	cache.Set(StoreOrderListKey(2, "", 1, 10), "b")

	cache.Flush()

	_, hit := cache.Get(RewardsStatusKey(1))
	assert.False(t, hit)
	_, hit = cache.Get(StoreOrderListKey(2, "", 1, 10))
	assert.False(t, hit)
}
