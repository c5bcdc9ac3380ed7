package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const orderLocationKey = "orders:locations"

// OrderLocation represents an in-transit order's position.
type OrderLocation struct {
	OrderID string
	Lng     float64
	Lat     float64
}

// LocationStore mirrors in-transit order positions into a Redis geo index so
// tracking reads do not hit the database on every poll.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores an order's position using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, orderID string, lng, lat float64) error {
	return s.client.GeoAdd(ctx, orderLocationKey, &redis.GeoLocation{
		Name:      orderID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// GetLocation returns an order's last known position, or nil if absent.
func (s *LocationStore) GetLocation(ctx context.Context, orderID string) (*OrderLocation, error) {
	results, err := s.client.GeoPos(ctx, orderLocationKey, orderID).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0] == nil {
		return nil, nil
	}
	return &OrderLocation{
		OrderID: orderID,
		Lng:     results[0].Longitude,
		Lat:     results[0].Latitude,
	}, nil
}

// FindNearbyOrders returns in-transit orders within the given radius (km),
// closest first. Used by the dispatch dashboard.
func (s *LocationStore) FindNearbyOrders(ctx context.Context, lng, lat, radiusKm float64) ([]OrderLocation, error) {
	results, err := s.client.GeoRadius(ctx, orderLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]OrderLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, OrderLocation{
			OrderID: r.Name,
			Lng:     r.Longitude,
			Lat:     r.Latitude,
		})
	}
	return locations, nil
}

// RemoveLocation removes an order from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, orderID string) error {
	return s.client.ZRem(ctx, orderLocationKey, orderID).Err()
}
