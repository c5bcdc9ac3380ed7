package service

import "errors"

var (
	// ErrInvalidOrderID is returned when order ID is empty.
	ErrInvalidOrderID = errors.New("invalid order id")

	// ErrInvalidOrderNo is returned when order number is empty.
	ErrInvalidOrderNo = errors.New("invalid order number")

	// ErrInvalidOrigin is returned when origin coordinates are invalid.
	ErrInvalidOrigin = errors.New("invalid origin location")

	// ErrInvalidDestination is returned when destination coordinates are invalid.
	ErrInvalidDestination = errors.New("invalid destination location")

	// ErrOrderNotShippable is returned when shipping an order not in PENDING state.
	ErrOrderNotShippable = errors.New("order not in shippable state")

	// ErrOrderNotCancellable is returned when cancelling a delivered or already cancelled order.
	ErrOrderNotCancellable = errors.New("order cannot be cancelled")

	// ErrOrderLocked is returned when a concurrent ship or cancel holds the order lock.
	ErrOrderLocked = errors.New("order is being processed")

	// ErrEmptyBatch is returned when batch shipping is invoked with no orders.
	ErrEmptyBatch = errors.New("empty order batch")
)
