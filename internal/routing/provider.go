package routing

import (
	"context"
	"errors"

	"shiptrack/internal/domain"
)

// ErrNotConfigured is returned by a provider that has no upstream endpoint.
var ErrNotConfigured = errors.New("routing provider not configured")

// ErrNoRoute is returned when the upstream cannot produce a path.
var ErrNoRoute = errors.New("no route found")

// Provider computes a road route between two coordinates.
//
// It returns a polyline of geographic points and a parallel cumulative
// travel-time estimate in seconds. Implementations are unreliable by
// contract; callers must handle errors.
type Provider interface {
	FetchRoute(ctx context.Context, origin, destination domain.GeoPoint) (points []domain.GeoPoint, timeArray []float64, err error)
}
