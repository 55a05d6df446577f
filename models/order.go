package models

import (
	"time"

	"gorm.io/gorm"
)

// Order statuses. The lifecycle is pending -> confirmed -> preparing ->
// ready -> completed, with cancelled reachable from pending, confirmed or
// preparing. completed and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Order types
const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"
	OrderTypeDineIn   = "dine_in"
)

// Payment statuses
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// allowedTransitions is the directed edge set of the order status graph.
var allowedTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Order represents a customer order. Pricing fields are written once at
// creation and never mutated afterwards; only status, payment and readiness
// fields change over the order's lifetime.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex" json:"order_number"` // human-facing, e.g. SB-000042

	CustomerID uint  `gorm:"not null;index" json:"customer_id"`
	Customer   User  `gorm:"foreignKey:CustomerID" json:"customer"`
	StoreID    uint  `gorm:"not null;index" json:"store_id"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	OrderType     string `gorm:"not null;default:'pickup'" json:"order_type"` // pickup, delivery, dine_in
	Status        string `gorm:"not null;default:'pending'" json:"status"`
	PaymentStatus string `gorm:"not null;default:'pending'" json:"payment_status"`
	PaymentMethod string `gorm:"not null" json:"payment_method"`

	Subtotal    float64 `gorm:"not null" json:"subtotal"`
	Tax         float64 `gorm:"not null" json:"tax"`
	Tip         float64 `gorm:"not null;default:0" json:"tip"`
	DeliveryFee float64 `gorm:"not null;default:0" json:"delivery_fee"`
	Total       float64 `gorm:"not null" json:"total"`

	RewardsEarned  int  `gorm:"not null;default:0" json:"rewards_earned"`
	RewardsUsed    int  `gorm:"not null;default:0" json:"rewards_used"`
	RewardsSettled bool `gorm:"not null;default:false" json:"-"` // set once a cancellation refund has been applied

	DeliveryAddress *string `json:"delivery_address,omitempty"`
	Notes           string  `json:"notes"`

	EstimatedReadyTime *time.Time `json:"estimated_ready_time,omitempty"`
	ActualReadyTime    *time.Time `json:"actual_ready_time,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// CanTransition reports whether moving from status `from` to status `to` is
// an edge in the order status graph.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a status permits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// IsCancellable reports whether an order in the given status may still be
// cancelled.
func IsCancellable(status string) bool {
	return CanTransition(status, StatusCancelled)
}

// IsValidStatus reports whether the value is a known order status.
func IsValidStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// IsValidOrderType reports whether the value is a known order type.
func IsValidOrderType(orderType string) bool {
	switch orderType {
	case OrderTypePickup, OrderTypeDelivery, OrderTypeDineIn:
		return true
	}
	return false
}

// IsTerminal reports whether the order has reached a terminal status.
func (o *Order) IsTerminal() bool {
	return IsTerminalStatus(o.Status)
}
