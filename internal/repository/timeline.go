package repository

import (
	"context"

	"shiptrack/internal/domain"
)

// TimelineRepository defines the persistence operations for order timelines.
type TimelineRepository interface {
	// Append records a milestone entry.
	Append(ctx context.Context, entry *domain.TimelineEntry) error

	// GetByOrderID retrieves an order's timeline, oldest first.
	GetByOrderID(ctx context.Context, orderID string) ([]*domain.TimelineEntry, error)

	// HasStatus reports whether a milestone was already recorded for an order.
	HasStatus(ctx context.Context, orderID, status string) (bool, error)
}
