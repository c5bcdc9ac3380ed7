package repository

import (
	"context"

	"shiptrack/internal/domain"
)

// RouteRepository defines the persistence operations for routes.
type RouteRepository interface {
	// Create persists a new route.
	Create(ctx context.Context, route *domain.Route) error

	// GetByID retrieves a route by ID.
	GetByID(ctx context.Context, id string) (*domain.Route, error)

	// GetByOrderID retrieves the route for an order.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Route, error)
}
