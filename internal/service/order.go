package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shiptrack/internal/domain"
	"shiptrack/internal/geo"
	"shiptrack/internal/repository"
)

// OrderService handles order creation and retrieval.
type OrderService struct {
	orderRepo    repository.OrderRepository
	timelineRepo repository.TimelineRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repository.OrderRepository, timelineRepo repository.TimelineRepository) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		timelineRepo: timelineRepo,
	}
}

// CreateOrderRequest contains the parameters for creating an order.
type CreateOrderRequest struct {
	OrderNo     string
	Logistics   string
	Origin      domain.GeoPoint
	Destination domain.GeoPoint
}

// CreateOrder creates a new order in PENDING state.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if req.OrderNo == "" {
		return nil, ErrInvalidOrderNo
	}
	if !geo.Valid(req.Origin) {
		return nil, ErrInvalidOrigin
	}
	if !geo.Valid(req.Destination) {
		return nil, ErrInvalidDestination
	}
	if _, err := domain.ResolveCarrierSpeed(req.Logistics); err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:          uuid.New().String(),
		OrderNo:     req.OrderNo,
		Status:      domain.OrderStatusPending,
		Logistics:   req.Logistics,
		Origin:      req.Origin,
		Destination: req.Destination,
		CreatedAt:   time.Now(),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	return s.orderRepo.GetByID(ctx, orderID)
}

// ListOrders retrieves all orders.
func (s *OrderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orderRepo.GetAll(ctx)
}

// ListOrdersByStatus retrieves all orders in the given status.
func (s *OrderService) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return s.orderRepo.GetByStatus(ctx, status)
}

// GetTimeline retrieves an order's milestone history, oldest first.
func (s *OrderService) GetTimeline(ctx context.Context, orderID string) ([]*domain.TimelineEntry, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.timelineRepo.GetByOrderID(ctx, orderID)
}
