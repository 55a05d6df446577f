package services

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/Rajvansh-1/starbucks-rewards-api/config"
	"github.com/Rajvansh-1/starbucks-rewards-api/models"
)

// CatalogInterface is the catalog collaborator consumed at order time. Only
// price and availability matter to the ordering engine.
type CatalogInterface interface {
	GetProduct(productID uint) (*models.Product, error)
}

// CatalogService reads products from the database.
type CatalogService struct{}

var catalogServiceInstance CatalogInterface

// InitCatalogService initializes the database-backed catalog service
func InitCatalogService() CatalogInterface {
	catalogServiceInstance = &CatalogService{}
	return catalogServiceInstance
}

// GetCatalogService returns the initialized catalog service instance
func GetCatalogService() CatalogInterface {
	return catalogServiceInstance
}

// SetCatalogService sets the catalog service instance (primarily for testing)
func SetCatalogService(service CatalogInterface) {
	catalogServiceInstance = service
}

// GetProduct looks up a product by id.
func (s *CatalogService) GetProduct(productID uint) (*models.Product, error) {
	db := config.GetDB()

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrItemUnavailable, productID)
		}
		return nil, fmt.Errorf("failed to look up product %d: %w", productID, err)
	}

	return &product, nil
}

// MockCatalogService is an in-memory catalog for testing
type MockCatalogService struct {
	products map[uint]models.Product
	mu       sync.RWMutex
}

// NewMockCatalogService creates a new mock catalog service
func NewMockCatalogService() *MockCatalogService {
	return &MockCatalogService{
		products: make(map[uint]models.Product),
	}
}

// SetAsMockForTesting sets this mock as the global catalog instance for testing
func (m *MockCatalogService) SetAsMockForTesting() {
	SetCatalogService(m)
}

// AddProduct registers a product in the mock catalog
func (m *MockCatalogService) AddProduct(product models.Product) {
	m.mu.Lock()
	m.products[product.ID] = product
	m.mu.Unlock()
}

// GetProduct looks up a product in the mock catalog
func (m *MockCatalogService) GetProduct(productID uint) (*models.Product, error) {
	m.mu.RLock()
	product, exists := m.products[productID]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: product %d", ErrItemUnavailable, productID)
	}
	return &product, nil
}
