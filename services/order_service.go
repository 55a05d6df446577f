package services

import (
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Rajvansh-1/starbucks-rewards-api/config"
	"github.com/Rajvansh-1/starbucks-rewards-api/models"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID uint
	Role   string
}

// IsStaff reports whether the actor may operate on orders they do not own.
func (a Actor) IsStaff() bool {
	return a.Role == models.RoleStaff || a.Role == models.RoleAdmin
}

// OrderItemInput is one requested cart line.
type OrderItemInput struct {
	ProductID    uint     `json:"product_id" binding:"required"`
	Quantity     int      `json:"quantity" binding:"required,gt=0"`
	Size         string   `json:"size"`
	Milk         string   `json:"milk"`
	Syrups       []string `json:"syrups"`
	Toppings     []string `json:"toppings"`
	Temperature  string   `json:"temperature"`
	Instructions string   `json:"instructions"`
}

// CreateOrderInput is the full cart plus intent handed in by the boundary
// layer.
type CreateOrderInput struct {
	CustomerID      uint
	StoreID         uint
	Items           []OrderItemInput
	OrderType       string
	Tip             float64
	RewardsUsed     int // stars to redeem
	PaymentMethod   string
	DeliveryAddress *string
	Notes           string
}

// OrderListResult is the cached shape of a paginated order list view.
type OrderListResult struct {
	Orders     []models.Order `json:"orders"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// OrderService coordinates the order lifecycle: pricing, the rewards ledger,
// persistence, cache invalidation and event fan-out. Creation is one logical
// transaction; a star reservation is rolled back if persistence fails.
type OrderService struct {
	orderNumberPrefix           string
	prepBaseMinutes             int
	prepPerItemMinutes          int
	prepPerCustomizationMinutes int
}

// NewOrderService builds an order service from the configured tunables.
func NewOrderService(cfg *config.Config) *OrderService {
	return &OrderService{
		orderNumberPrefix:           cfg.OrderNumberPrefix,
		prepBaseMinutes:             cfg.PrepBaseMinutes,
		prepPerItemMinutes:          cfg.PrepPerItemMinutes,
		prepPerCustomizationMinutes: cfg.PrepPerCustomizationMinutes,
	}
}

var orderServiceInstance *OrderService

// InitOrderService initializes the global order service
func InitOrderService(cfg *config.Config) *OrderService {
	orderServiceInstance = NewOrderService(cfg)
	return orderServiceInstance
}

// GetOrderService returns the initialized order service instance
func GetOrderService() *OrderService {
	return orderServiceInstance
}

// validateInput rejects malformed carts before anything is priced or debited.
func (s *OrderService) validateInput(input *CreateOrderInput) error {
	if len(input.Items) == 0 {
		return ErrEmptyCart
	}
	if !models.IsValidOrderType(input.OrderType) {
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidInput, input.OrderType)
	}
	if input.OrderType == models.OrderTypeDelivery && (input.DeliveryAddress == nil || *input.DeliveryAddress == "") {
		return fmt.Errorf("%w: delivery orders require a delivery address", ErrInvalidInput)
	}
	if input.PaymentMethod == "" {
		return fmt.Errorf("%w: payment method is required", ErrInvalidInput)
	}
	if input.Tip < 0 {
		return fmt.Errorf("%w: tip must not be negative", ErrInvalidInput)
	}
	if input.RewardsUsed < 0 {
		return fmt.Errorf("%w: rewards_used must not be negative", ErrInvalidInput)
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
		}
		if item.Size != "" && !models.IsValidSize(item.Size) {
			return fmt.Errorf("%w: unknown size %q", ErrInvalidInput, item.Size)
		}
		// Rune count, not byte length: instructions are free text and may be
		// multi-byte.
		if utf8.RuneCountInString(item.Instructions) > models.MaxInstructionsLength {
			return fmt.Errorf("%w: instructions exceed %d characters", ErrInvalidInput, models.MaxInstructionsLength)
		}
	}
	return nil
}

// buildItems resolves each cart line against the catalog, snapshotting the
// current price. Creation aborts here, before any ledger mutation, if any
// product is unavailable.
func (s *OrderService) buildItems(inputs []OrderItemInput) ([]models.OrderItem, error) {
	catalog := GetCatalogService()

	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		product, err := catalog.GetProduct(in.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Available {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, product.Name)
		}

		size := in.Size
		if size == "" {
			size = models.SizeTall
		}

		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Size:         size,
			Quantity:     in.Quantity,
			Milk:         in.Milk,
			Syrups:       in.Syrups,
			Toppings:     in.Toppings,
			Temperature:  in.Temperature,
			Instructions: in.Instructions,
			UnitPrice:    product.Price,
		})
	}
	return items, nil
}

// estimateReadyTime computes the advisory readiness estimate:
// base + items x perItem + customizations x perCustomization minutes.
func (s *OrderService) estimateReadyTime(items []models.OrderItem, now time.Time) time.Time {
	customizations := 0
	for i := range items {
		customizations += items[i].CustomizationCount()
	}
	minutes := s.prepBaseMinutes + len(items)*s.prepPerItemMinutes + customizations*s.prepPerCustomizationMinutes
	return now.Add(time.Duration(minutes) * time.Minute)
}

// CreateOrder validates, prices and persists a new order. The sequence is:
// price, reserve stars, persist, credit earned stars, invalidate caches,
// publish. If persistence fails after the star reservation, the reservation
// is rolled back before the error is returned. Cache and broadcast failures
// are non-fatal.
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	items, err := s.buildItems(input.Items)
	if err != nil {
		return nil, err
	}

	quote, err := GetPricingService().PriceCart(items, input.OrderType, input.Tip, input.RewardsUsed)
	if err != nil {
		return nil, err
	}

	rewards := GetRewardsService()
	if err := rewards.Reserve(input.CustomerID, input.RewardsUsed); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	estimated := s.estimateReadyTime(items, now)

	order := models.Order{
		CustomerID:         input.CustomerID,
		StoreID:            input.StoreID,
		Items:              items,
		OrderType:          input.OrderType,
		Status:             models.StatusPending,
		PaymentStatus:      models.PaymentPending,
		PaymentMethod:      input.PaymentMethod,
		Subtotal:           quote.Subtotal,
		Tax:                quote.Tax,
		Tip:                quote.Tip,
		DeliveryFee:        quote.DeliveryFee,
		Total:              quote.Total,
		RewardsEarned:      quote.RewardsEarned,
		RewardsUsed:        quote.RewardsUsed,
		DeliveryAddress:    input.DeliveryAddress,
		Notes:              input.Notes,
		EstimatedReadyTime: &estimated,
	}

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		// The order number derives from the auto-incremented primary key, so
		// it is unique and monotonic even under concurrent creation.
		order.OrderNumber = fmt.Sprintf("%s-%06d", s.orderNumberPrefix, order.ID)
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			UpdateColumn("order_number", order.OrderNumber).Error
	})
	if err != nil {
		// Roll back the star reservation before surfacing the error; the
		// customer must never be left with a debit and no order.
		if input.RewardsUsed > 0 {
			if refundErr := rewards.Credit(input.CustomerID, input.RewardsUsed, 0); refundErr != nil {
				log.Printf("Failed to roll back star reservation for customer %d: %v", input.CustomerID, refundErr)
			}
		}
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	// Accrual is credited at creation time, before payment confirmation, and
	// is not clawed back on cancellation. Lifetime spend grows by the
	// subtotal, which drives the tier.
	if err := rewards.Credit(input.CustomerID, quote.RewardsEarned, quote.Subtotal); err != nil {
		log.Printf("Failed to credit earned stars for order %s: %v", order.OrderNumber, err)
	}

	s.invalidateViews(&order)

	full, err := s.loadOrder(order.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(EventOrderCreated, full)

	return full, nil
}

// GetOrder returns the order if the actor is allowed to see it. Customers may
// only read their own orders; staff and admins may read any.
func (s *OrderService) GetOrder(orderID uint, actor Actor) (*models.Order, error) {
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && order.CustomerID != actor.UserID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListOrders returns a paginated order list view, read through the cache.
// Customers see their own orders; staff and admins see the store's.
func (s *OrderService) ListOrders(actor Actor, storeID uint, status string, page, limit int) (*OrderListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if status != "" && !models.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if actor.IsStaff() && storeID == 0 {
		return nil, fmt.Errorf("%w: staff listings require a store id", ErrInvalidInput)
	}

	var key CacheKey
	if actor.IsStaff() {
		key = StoreOrderListKey(storeID, status, page, limit)
	} else {
		key = CustomerOrderListKey(actor.UserID, status, page, limit)
	}

	if cached, hit := GetCacheService().Get(key); hit {
		if result, ok := cached.(*OrderListResult); ok {
			return result, nil
		}
	}

	db := config.GetDB()
	query := db.Model(&models.Order{})
	if actor.IsStaff() {
		query = query.Where("store_id = ?", storeID)
	} else {
		query = query.Where("customer_id = ?", actor.UserID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("Customer").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	result := &OrderListResult{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	GetCacheService().Set(key, result)

	return result, nil
}

// AdvanceStatus applies a status transition. Staff and admins may apply any
// edge in the graph; the owning customer may only cancel from a cancellable
// state. Two simultaneous advances on the same order cannot both apply: the
// update is guarded on the observed status, and the loser re-reads and fails
// validation against the state the winner set.
func (s *OrderService) AdvanceStatus(orderID uint, newStatus string, actor Actor) (*models.Order, error) {
	if !models.IsValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, newStatus)
	}

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}

	if !actor.IsStaff() {
		if order.CustomerID != actor.UserID {
			return nil, ErrForbidden
		}
		if newStatus != models.StatusCancelled {
			return nil, ErrForbidden
		}
	}

	if err := s.applyTransition(order, newStatus); err != nil {
		return nil, err
	}

	if newStatus == models.StatusCancelled {
		// Refund redeemed stars exactly once. Earned stars are not clawed
		// back.
		if err := GetRewardsService().RefundForOrder(order); err != nil {
			log.Printf("Failed to refund stars for cancelled order %s: %v", order.OrderNumber, err)
		}
	}

	s.invalidateViews(order)

	full, err := s.loadOrder(order.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(EventStatusUpdated, full)

	if full.IsTerminal() {
		s.archiveReceipt(full)
	}

	return full, nil
}

// applyTransition validates the edge and applies it with a status-guarded
// UPDATE. Entering ready stamps actual_ready_time.
func (s *OrderService) applyTransition(order *models.Order, newStatus string) error {
	if order.IsTerminal() {
		return ErrTerminalOrder
	}
	if !models.CanTransition(order.Status, newStatus) {
		return ErrInvalidTransition
	}

	updates := map[string]interface{}{"status": newStatus}
	if newStatus == models.StatusReady {
		now := time.Now().UTC()
		updates["actual_ready_time"] = &now
	}

	db := config.GetDB()
	result := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Lost the race: someone else moved the order first. Re-read and
		// report against the state they set.
		current, err := s.loadOrder(order.ID)
		if err != nil {
			return err
		}
		if current.IsTerminal() {
			return ErrTerminalOrder
		}
		return ErrInvalidTransition
	}

	order.Status = newStatus
	return nil
}

// CancelOrder cancels the order on behalf of the actor. It is the explicit,
// actor-initiated path; there is no timeout-driven cancellation.
func (s *OrderService) CancelOrder(orderID uint, actor Actor) (*models.Order, error) {
	return s.AdvanceStatus(orderID, models.StatusCancelled, actor)
}

// ConfirmPayment records the payment collaborator's success signal. It is
// idempotent: confirming an already-paid order is a no-op.
func (s *OrderService) ConfirmPayment(orderID uint) (*models.Order, error) {
	db := config.GetDB()

	result := db.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentPending).
		UpdateColumn("payment_status", models.PaymentPaid)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", result.Error)
	}

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}

	if result.RowsAffected > 0 {
		s.invalidateViews(order)
		s.publishEvent(EventPaymentConfirmed, order)
	}

	return order, nil
}

// loadOrder fetches an order with its items and customer from the
// authoritative store.
func (s *OrderService) loadOrder(orderID uint) (*models.Order, error) {
	db := config.GetDB()

	var order models.Order
	if err := db.Preload("Items").Preload("Customer").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return &order, nil
}

// invalidateViews drops every cached view the order mutation could affect.
func (s *OrderService) invalidateViews(order *models.Order) {
	cache := GetCacheService()
	if cache == nil {
		return
	}
	cache.InvalidateCustomer(order.CustomerID)
	cache.InvalidateStore(order.StoreID)
}

// publishEvent fans the event out on all channels observing the order.
// Broadcast failures are non-fatal by construction; publish never blocks.
func (s *OrderService) publishEvent(eventType string, order *models.Order) {
	broadcaster := GetBroadcaster()
	if broadcaster == nil {
		return
	}
	broadcaster.PublishOrderEvent(eventType, order)
}

// archiveReceipt uploads the terminal order's receipt snapshot. Best-effort.
func (s *OrderService) archiveReceipt(order *models.Order) {
	archiver := GetReceiptService()
	if archiver == nil {
		return
	}
	if _, err := archiver.ArchiveOrder(order); err != nil {
		log.Printf("Failed to archive receipt for order %s: %v", order.OrderNumber, err)
	}
}
