package domain

import "time"

// Timeline milestone statuses recorded while an order is in transit.
const (
	TimelineShipped        = "SHIPPED"
	TimelineInTransit      = "IN_TRANSIT"
	TimelineOutForDelivery = "OUT_FOR_DELIVERY"
	TimelineDelivered      = "DELIVERED"
	TimelineCancelled      = "CANCELLED"
)

// TimelineEntry is an append-only milestone record for an order.
type TimelineEntry struct {
	ID          string
	OrderID     string
	Status      string
	Description string
	CreatedAt   time.Time
}
