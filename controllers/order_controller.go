package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Rajvansh-1/starbucks-rewards-api/config"
	"github.com/Rajvansh-1/starbucks-rewards-api/middleware"
	"github.com/Rajvansh-1/starbucks-rewards-api/models"
	"github.com/Rajvansh-1/starbucks-rewards-api/services"
)

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	StoreID         uint                       `json:"store_id" binding:"required"`
	Items           []services.OrderItemInput  `json:"items"`
	OrderType       string                     `json:"order_type" binding:"required"`
	Tip             float64                    `json:"tip"`
	RewardsUsed     int                        `json:"rewards_used"`
	PaymentMethod   string                     `json:"payment_method" binding:"required"`
	DeliveryAddress *string                    `json:"delivery_address"`
	Notes           string                     `json:"notes"`
}

// UpdateOrderStatusRequest represents the request body for a status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// currentUser resolves the authenticated user's database record. It writes
// the error response itself and returns false when resolution fails.
func currentUser(c *gin.Context) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil, false
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found. Please create a profile first.",
			},
		})
		return nil, false
	}

	return &user, true
}

// actorFor builds the service-layer actor for a resolved user.
func actorFor(user *models.User) services.Actor {
	return services.Actor{UserID: user.ID, Role: user.Role}
}

// orderIDParam parses the :id path parameter.
func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid order id",
			},
		})
		return 0, false
	}
	return uint(id), true
}

// respondOrderError translates service errors into the HTTP envelope.
func respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "EMPTY_CART", "message": "Cannot create an order with no items"},
		})
	case errors.Is(err, services.ErrItemUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "ITEM_UNAVAILABLE", "message": "One or more items are not currently available"},
		})
	case errors.Is(err, services.ErrInsufficientStars):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INSUFFICIENT_STARS", "message": "Star balance is too low for this redemption"},
		})
	case errors.Is(err, services.ErrInvalidPricing), errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "VALIDATION_ERROR", "message": err.Error()},
		})
	case errors.Is(err, services.ErrTerminalOrder):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   gin.H{"code": "TERMINAL_ORDER", "message": "Order is already completed or cancelled"},
		})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_TRANSITION", "message": "Requested status change is not allowed from the order's current status"},
		})
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   gin.H{"code": "ORDER_NOT_FOUND", "message": "Order not found"},
		})
	case errors.Is(err, services.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   gin.H{"code": "CUSTOMER_NOT_FOUND", "message": "Customer not found"},
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   gin.H{"code": "FORBIDDEN", "message": "You do not have permission to access this order"},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_ERROR", "message": "Something went wrong processing the order"},
		})
	}
}

// CreateOrder handles POST /api/v1/orders - creates a new order (customers only)
func CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	// Only customers place orders
	if user.Role != models.RoleCustomer {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only customers can create orders",
			},
		})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := services.GetOrderService().CreateOrder(services.CreateOrderInput{
		CustomerID:      user.ID,
		StoreID:         req.StoreID,
		Items:           req.Items,
		OrderType:       req.OrderType,
		Tip:             req.Tip,
		RewardsUsed:     req.RewardsUsed,
		PaymentMethod:   req.PaymentMethod,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders - lists orders visible to the actor.
// Customers see their own orders; staff and admins see the store's
// (store_id query parameter). Supports status filtering and pagination.
func ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	status := c.Query("status")

	var storeID uint
	if raw := c.Query("store_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid store id",
				},
			})
			return
		}
		storeID = uint(parsed)
	}

	result, err := services.GetOrderService().ListOrders(actorFor(user), storeID, status, page, limit)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Orders,
		"pagination": gin.H{
			"page":       result.Page,
			"limit":      result.Limit,
			"total":      result.Total,
			"totalPages": result.TotalPages,
		},
	})
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := services.GetOrderService().GetOrder(orderID, actorFor(user))
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status - advances the
// order through its lifecycle. Staff and admins may apply any valid
// transition; the owning customer may only cancel.
func UpdateOrderStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := services.GetOrderService().AdvanceStatus(orderID, req.Status, actorFor(user))
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func CancelOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := services.GetOrderService().CancelOrder(orderID, actorFor(user))
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ConfirmPayment handles POST /api/v1/orders/:id/payment/confirm - records
// the payment gateway's success signal (staff/admin only; the gateway itself
// is an external collaborator).
func ConfirmPayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only staff can confirm payments",
			},
		})
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := services.GetOrderService().ConfirmPayment(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
