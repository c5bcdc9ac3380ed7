package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shiptrack/internal/domain"
	"shiptrack/internal/service"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService    *service.OrderService
	shippingService *service.ShippingService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *service.OrderService, shippingService *service.ShippingService) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		shippingService: shippingService,
	}
}

// CreateOrderRequest is the HTTP request body for creating an order.
type CreateOrderRequest struct {
	OrderNo        string  `json:"order_no"`
	Logistics      string  `json:"logistics"`
	OriginLng      float64 `json:"origin_lng"`
	OriginLat      float64 `json:"origin_lat"`
	DestinationLng float64 `json:"destination_lng"`
	DestinationLat float64 `json:"destination_lat"`
}

// ShipBatchRequest is the HTTP request body for batch shipping.
type ShipBatchRequest struct {
	OrderIDs []string `json:"order_ids"`
}

// CancelOrderRequest is the HTTP request body for cancelling an order.
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

// OrderResponse is the HTTP representation of an order.
type OrderResponse struct {
	ID              string           `json:"id"`
	OrderNo         string           `json:"order_no"`
	Status          string           `json:"status"`
	Logistics       string           `json:"logistics"`
	Origin          domain.GeoPoint  `json:"origin"`
	Destination     domain.GeoPoint  `json:"destination"`
	CurrentLocation *domain.GeoPoint `json:"current_location,omitempty"`
	RouteID         string           `json:"route_id,omitempty"`
	EstimatedTime   float64          `json:"estimated_time,omitempty"`
	ActualTime      string           `json:"actual_time,omitempty"`
	CancelReason    string           `json:"cancel_reason,omitempty"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:              order.ID,
		OrderNo:         order.OrderNo,
		Status:          string(order.Status),
		Logistics:       order.Logistics,
		Origin:          order.Origin,
		Destination:     order.Destination,
		CurrentLocation: order.CurrentLocation,
		RouteID:         order.RouteID,
		EstimatedTime:   order.EstimatedTime,
		CancelReason:    order.CancelReason,
	}
	if !order.ActualTime.IsZero() {
		resp.ActualTime = order.ActualTime.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// TimelineEntryResponse is the HTTP representation of one milestone.
type TimelineEntryResponse struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// CreateOrder handles POST /v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), service.CreateOrderRequest{
		OrderNo:     req.OrderNo,
		Logistics:   req.Logistics,
		Origin:      domain.GeoPoint{Lng: req.OriginLng, Lat: req.OriginLat},
		Destination: domain.GeoPoint{Lng: req.DestinationLng, Lat: req.DestinationLat},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toOrderResponse(order))
}

// GetOrder handles GET /v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// ListOrders handles GET /v1/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var (
		orders []*domain.Order
		err    error
	)
	if status := c.Query("status"); status != "" {
		orders, err = h.orderService.ListOrdersByStatus(c.Request.Context(), domain.OrderStatus(status))
	} else {
		orders, err = h.orderService.ListOrders(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toOrderResponse(order))
	}
	respondJSON(c, http.StatusOK, resp)
}

// ShipOrder handles POST /v1/orders/:id/ship
func (h *OrderHandler) ShipOrder(c *gin.Context) {
	order, err := h.shippingService.Ship(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// ShipBatch handles POST /v1/orders/ship-batch
func (h *OrderHandler) ShipBatch(c *gin.Context) {
	var req ShipBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	orders, err := h.shippingService.ShipBatch(c.Request.Context(), req.OrderIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toOrderResponse(order))
	}
	respondJSON(c, http.StatusOK, resp)
}

// CancelOrder handles POST /v1/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Reason == "" {
		req.Reason = "cancelled by user"
	}

	order, err := h.shippingService.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

// TrackOrder handles GET /v1/orders/:id/track
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	info, err := h.shippingService.Track(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, info)
}

// AdvanceOrder handles POST /v1/orders/:id/advance
func (h *OrderHandler) AdvanceOrder(c *gin.Context) {
	if err := h.shippingService.AdvanceOneStep(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"advanced": true})
}

// GetTimeline handles GET /v1/orders/:id/timeline
func (h *OrderHandler) GetTimeline(c *gin.Context) {
	entries, err := h.orderService.GetTimeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]TimelineEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, TimelineEntryResponse{
			Status:      entry.Status,
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	respondJSON(c, http.StatusOK, resp)
}

// ListCarriers handles GET /v1/carriers
func (h *OrderHandler) ListCarriers(c *gin.Context) {
	respondJSON(c, http.StatusOK, domain.Carriers())
}
