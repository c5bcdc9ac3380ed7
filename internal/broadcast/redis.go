package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// RedisBroadcaster publishes delivery events over Redis Pub/Sub, one channel
// per order plus a firehose channel for dashboards.
type RedisBroadcaster struct {
	client *redis.Client
}

// NewRedisBroadcaster creates a new RedisBroadcaster.
func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

// PublishPosition publishes a position-update event.
func (b *RedisBroadcaster) PublishPosition(ctx context.Context, update PositionUpdate) error {
	return b.publish(ctx, "position", update.OrderNo, update)
}

// PublishStatus publishes a status-update event.
func (b *RedisBroadcaster) PublishStatus(ctx context.Context, update StatusUpdate) error {
	return b.publish(ctx, "status", update.OrderNo, update)
}

// PublishCompletion publishes a completion event.
func (b *RedisBroadcaster) PublishCompletion(ctx context.Context, update Completion) error {
	return b.publish(ctx, "completion", update.OrderNo, update)
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (b *RedisBroadcaster) publish(ctx context.Context, eventType, orderNo string, data any) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	payload, err := json.Marshal(envelope{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	pipe := b.client.Pipeline()
	pipe.Publish(ctx, orderChannel(orderNo), payload)
	pipe.Publish(ctx, "orders:events", payload)
	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe opens a Pub/Sub subscription for one order's events, or for the
// firehose channel when orderNo is empty. The caller owns the subscription
// and must close it.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, orderNo string) *redis.PubSub {
	channel := "orders:events"
	if orderNo != "" {
		channel = orderChannel(orderNo)
	}
	return b.client.Subscribe(ctx, channel)
}

func orderChannel(orderNo string) string {
	return fmt.Sprintf("order:%s", orderNo)
}
