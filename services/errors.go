package services

import "errors"

// Sentinel errors returned by the order and rewards services. Controllers
// translate these into HTTP error codes with errors.Is.
var (
	// ErrEmptyCart is returned when an order is submitted with no items.
	ErrEmptyCart = errors.New("order: cart is empty")

	// ErrItemUnavailable is returned when a cart references a product that is
	// flagged unavailable in the catalog. Creation aborts before any ledger
	// mutation.
	ErrItemUnavailable = errors.New("order: item unavailable")

	// ErrInvalidInput is returned for malformed input rejected before any
	// mutation (bad quantity, unknown size, oversized instructions, ...).
	ErrInvalidInput = errors.New("order: invalid input")

	// ErrInvalidPricing is returned when pricing would produce a negative
	// total. Defensive: unreachable given validated input.
	ErrInvalidPricing = errors.New("pricing: total would be negative")

	// ErrInsufficientStars is returned when a redemption exceeds the
	// customer's current star balance.
	ErrInsufficientStars = errors.New("rewards: insufficient stars")

	// ErrInvalidTransition is returned when a status change is not an edge in
	// the order status graph.
	ErrInvalidTransition = errors.New("order: invalid status transition")

	// ErrTerminalOrder is returned when advancing an order that is already
	// completed or cancelled.
	ErrTerminalOrder = errors.New("order: order is in a terminal state")

	// ErrOrderNotFound is returned when the order does not exist.
	ErrOrderNotFound = errors.New("order: not found")

	// ErrCustomerNotFound is returned when the customer does not exist.
	ErrCustomerNotFound = errors.New("rewards: customer not found")

	// ErrForbidden is returned when the acting user may not perform the
	// operation on this order.
	ErrForbidden = errors.New("order: forbidden")
)
