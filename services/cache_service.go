package services

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CacheKey is a deterministic cache key. Keys are always produced by the
// typed builders below, never by ad hoc string concatenation, so two
// different queries can never collide.
type CacheKey string

// RewardsStatusKey is the cache key for a customer's rewards status view.
func RewardsStatusKey(customerID uint) CacheKey {
	return CacheKey(fmt.Sprintf("rewards:customer:%d", customerID))
}

// CustomerOrderListKey is the cache key for a customer's order list view.
func CustomerOrderListKey(customerID uint, status string, page, limit int) CacheKey {
	if status == "" {
		status = "any"
	}
	return CacheKey(fmt.Sprintf("orders:customer:%d:status:%s:page:%d:limit:%d", customerID, status, page, limit))
}

// StoreOrderListKey is the cache key for a store-wide order list view.
func StoreOrderListKey(storeID uint, status string, page, limit int) CacheKey {
	if status == "" {
		status = "any"
	}
	return CacheKey(fmt.Sprintf("orders:store:%d:status:%s:page:%d:limit:%d", storeID, status, page, limit))
}

// CacheService is a read-through TTL cache for derived aggregate views
// (rewards status, order lists). It is an accelerator, never a source of
// truth: mutations always read the authoritative store, and the whole cache
// can be flushed at any time with only a latency impact.
type CacheService struct {
	store *gocache.Cache
	ttl   time.Duration
}

// NewCacheService builds a cache whose entries expire after the given TTL.
func NewCacheService(ttl time.Duration) *CacheService {
	return &CacheService{
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

var cacheServiceInstance *CacheService

// InitCacheService initializes the global cache service
func InitCacheService(ttl time.Duration) *CacheService {
	cacheServiceInstance = NewCacheService(ttl)
	return cacheServiceInstance
}

// GetCacheService returns the initialized cache service instance
func GetCacheService() *CacheService {
	return cacheServiceInstance
}

// SetCacheService sets the cache service instance (primarily for testing)
func SetCacheService(service *CacheService) {
	cacheServiceInstance = service
}

// Get returns the cached value for the key and whether it was present.
func (s *CacheService) Get(key CacheKey) (interface{}, bool) {
	return s.store.Get(string(key))
}

// Set stores a value under the key with the default TTL.
func (s *CacheService) Set(key CacheKey, value interface{}) {
	s.store.Set(string(key), value, s.ttl)
}

// SetWithTTL stores a value under the key with an explicit TTL.
func (s *CacheService) SetWithTTL(key CacheKey, value interface{}, ttl time.Duration) {
	s.store.Set(string(key), value, ttl)
}

// InvalidatePrefix drops every cached entry whose key starts with the prefix.
func (s *CacheService) InvalidatePrefix(prefix string) {
	for key := range s.store.Items() {
		if strings.HasPrefix(key, prefix) {
			s.store.Delete(key)
		}
	}
}

// InvalidateCustomer drops every view that could be affected by a mutation to
// this customer's orders or rewards account.
func (s *CacheService) InvalidateCustomer(customerID uint) {
	s.store.Delete(string(RewardsStatusKey(customerID)))
	s.InvalidatePrefix(fmt.Sprintf("orders:customer:%d:", customerID))
}

// InvalidateStore drops every store-wide order list view for the store.
func (s *CacheService) InvalidateStore(storeID uint) {
	s.InvalidatePrefix(fmt.Sprintf("orders:store:%d:", storeID))
}

// Flush clears the entire cache.
func (s *CacheService) Flush() {
	s.store.Flush()
}
