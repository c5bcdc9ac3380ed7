package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for order location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, orderID string, lng, lat float64) error
	GetLocation(ctx context.Context, orderID string) (*OrderLocation, error)
	FindNearbyOrders(ctx context.Context, lng, lat, radiusKm float64) ([]OrderLocation, error)
	RemoveLocation(ctx context.Context, orderID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error)
	ReleaseOrderLock(ctx context.Context, orderID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
