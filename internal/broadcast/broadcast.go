package broadcast

import (
	"context"
	"time"

	"shiptrack/internal/domain"
)

// PositionUpdate is emitted each time a shipped order moves one step.
type PositionUpdate struct {
	OrderNo     string          `json:"order_no"`
	Location    domain.GeoPoint `json:"location"`
	Progress    float64         `json:"progress"` // 0..100
	CurrentStep int             `json:"current_step"`
}

// StatusUpdate is emitted on order lifecycle changes.
type StatusUpdate struct {
	OrderNo string `json:"order_no"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Completion is emitted once when an order is delivered.
type Completion struct {
	OrderNo    string    `json:"order_no"`
	Status     string    `json:"status"`
	ActualTime time.Time `json:"actual_time"`
}

// Broadcaster fans delivery events out to subscribers. The core only calls
// into it; delivery to consumers is the collaborator's concern.
type Broadcaster interface {
	PublishPosition(ctx context.Context, update PositionUpdate) error
	PublishStatus(ctx context.Context, update StatusUpdate) error
	PublishCompletion(ctx context.Context, update Completion) error
}
