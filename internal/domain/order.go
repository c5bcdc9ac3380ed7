package domain

import "time"

// OrderStatus represents the current status of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusShipping  OrderStatus = "SHIPPING"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// GeoPoint is a geographic coordinate in lng/lat order.
type GeoPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Order represents a logical shipment in the system.
type Order struct {
	ID              string
	OrderNo         string
	Status          OrderStatus
	Logistics       string // Carrier name, resolves to a speed coefficient
	Origin          GeoPoint
	Destination     GeoPoint
	CurrentLocation *GeoPoint // Mirrors route points[currentStep]; nil before shipping
	RouteID         string
	CreatedAt       time.Time // Simulation time origin
	EstimatedTime   float64   // Simulated delivery seconds for the full route
	ActualTime      time.Time // Stamped on delivery
	CancelledAt     time.Time
	CancelReason    string
}
