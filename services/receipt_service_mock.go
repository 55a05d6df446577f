package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Rajvansh-1/starbucks-rewards-api/models"
)

// MockReceiptService is a mock implementation of ReceiptService for testing
type MockReceiptService struct {
	archived map[string][]byte // map of S3 key to receipt content
	mu       sync.RWMutex
}

// NewMockReceiptService creates a new mock receipt service
func NewMockReceiptService() *MockReceiptService {
	return &MockReceiptService{
		archived: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global receipt service instance for testing
func (m *MockReceiptService) SetAsMockForTesting() {
	SetReceiptService(m)
}

// ArchiveOrder simulates archiving a receipt
func (m *MockReceiptService) ArchiveOrder(order *models.Order) (string, error) {
	if order.OrderNumber == "" {
		return "", fmt.Errorf("cannot archive order without an order number")
	}

	receipt, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("failed to marshal receipt: %w", err)
	}

	s3Key := fmt.Sprintf("receipts/%s.json", order.OrderNumber)

	m.mu.Lock()
	m.archived[s3Key] = receipt
	m.mu.Unlock()

	return s3Key, nil
}

// ReceiptExists checks if a receipt exists in mock storage
func (m *MockReceiptService) ReceiptExists(s3Key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.archived[s3Key]
	return exists
}

// ArchivedReceipts returns all archived receipts (for testing assertions)
func (m *MockReceiptService) ArchivedReceipts() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	receipts := make(map[string][]byte, len(m.archived))
	for k, v := range m.archived {
		receipts[k] = v
	}
	return receipts
}

// Clear removes all receipts from mock storage
func (m *MockReceiptService) Clear() {
	m.mu.Lock()
	m.archived = make(map[string][]byte)
	m.mu.Unlock()
}
