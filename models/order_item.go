package models

import "time"

// Drink sizes
const (
	SizeShort  = "short"
	SizeTall   = "tall"
	SizeGrande = "grande"
	SizeVenti  = "venti"
)

// MaxInstructionsLength bounds the free-text instructions on a line item.
const MaxInstructionsLength = 200

// OrderItem is a single line of an order. The unit price is snapshotted from
// the catalog at order-creation time and is immutable afterwards, even if the
// catalog price later changes.
type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`

	ProductID   uint   `gorm:"not null" json:"product_id"`
	ProductName string `gorm:"not null" json:"product_name"` // snapshot at order time
	Size        string `gorm:"not null;default:'tall'" json:"size"`
	Quantity    int    `gorm:"not null;check:quantity > 0" json:"quantity"`

	// Customizations
	Milk         string   `json:"milk,omitempty"`
	Syrups       []string `gorm:"serializer:json" json:"syrups,omitempty"`
	Toppings     []string `gorm:"serializer:json" json:"toppings,omitempty"`
	Temperature  string   `json:"temperature,omitempty"`
	Instructions string   `json:"instructions,omitempty"` // free text, max 200 chars

	UnitPrice float64 `gorm:"not null" json:"unit_price"` // snapshot at order time
	LineTotal float64 `gorm:"not null" json:"line_total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// IsValidSize reports whether the value is a known drink size.
func IsValidSize(size string) bool {
	switch size {
	case SizeShort, SizeTall, SizeGrande, SizeVenti:
		return true
	}
	return false
}

// CustomizationCount returns how many customizations the item carries. It
// feeds the advisory preparation-time estimate.
func (i *OrderItem) CustomizationCount() int {
	count := len(i.Syrups) + len(i.Toppings)
	if i.Milk != "" {
		count++
	}
	if i.Temperature != "" {
		count++
	}
	return count
}
