package repository

import (
	"context"
	"time"

	"shiptrack/internal/domain"
)

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// Create persists a new order.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetAll retrieves all orders.
	GetAll(ctx context.Context) ([]*domain.Order, error)

	// GetByStatus retrieves all orders in the given status.
	GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)

	// Update updates an existing order.
	Update(ctx context.Context, order *domain.Order) error

	// AdvanceProgress records one simulation step transition as a single
	// atomic unit: the order's current location and the route's current step.
	AdvanceProgress(ctx context.Context, orderID string, loc domain.GeoPoint, step int) error

	// MarkDelivered completes an order: DELIVERED status, final location,
	// actual delivery time, and the route's final step, atomically.
	MarkDelivered(ctx context.Context, orderID string, loc domain.GeoPoint, step int, deliveredAt time.Time) error
}
