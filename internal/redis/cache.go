package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// TrackCacheTTL bounds staleness of cached tracking snapshots. Positions move
// at most once per simulated step, so a few seconds is safe.
const TrackCacheTTL = 5 * time.Second

const trackCachePrefix = "cache:track:"

// CachedTrack is a cached tracking snapshot for an order.
type CachedTrack struct {
	OrderNo     string  `json:"order_no"`
	Status      string  `json:"status"`
	Lng         float64 `json:"lng"`
	Lat         float64 `json:"lat"`
	Progress    float64 `json:"progress"`
	CurrentStep int     `json:"current_step"`
	TotalSteps  int     `json:"total_steps"`
}

// GetTrack retrieves a tracking snapshot from cache. A nil result is a miss.
func (s *CacheStore) GetTrack(ctx context.Context, orderID string) (*CachedTrack, error) {
	data, err := s.client.Get(ctx, trackCachePrefix+orderID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var track CachedTrack
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// SetTrack stores a tracking snapshot in cache.
func (s *CacheStore) SetTrack(ctx context.Context, orderID string, track *CachedTrack) error {
	data, err := json.Marshal(track)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, trackCachePrefix+orderID, data, TrackCacheTTL).Err()
}

// InvalidateTrack removes an order's cached snapshot.
func (s *CacheStore) InvalidateTrack(ctx context.Context, orderID string) error {
	return s.client.Del(ctx, trackCachePrefix+orderID).Err()
}
