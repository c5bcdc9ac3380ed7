package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"shiptrack/internal/domain"
	"shiptrack/internal/planner"
	"shiptrack/internal/repository"
	"shiptrack/internal/routing"
	"shiptrack/internal/service"
)

// ──────────────────────────────────────────────
// 1. ORDER CREATION AND VALIDATION
// ──────────────────────────────────────────────

func TestOrder_Create_StartsPending(t *testing.T) {
	t.Parallel()

	orderRepo := NewMockOrderRepository(nil)
	timelineRepo := NewMockTimelineRepository()
	svc := service.NewOrderService(orderRepo, timelineRepo)

	order, err := svc.CreateOrder(context.Background(), service.CreateOrderRequest{
		OrderNo:     "SF-20260829-001",
		Logistics:   "SF_EXPRESS",
		Origin:      domain.GeoPoint{Lng: 116.40, Lat: 39.90},
		Destination: domain.GeoPoint{Lng: 116.50, Lat: 40.00},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.ID == "" {
		t.Error("expected generated order ID")
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected PENDING, got %s", order.Status)
	}
	if orderRepo.CreateCallCount != 1 {
		t.Errorf("expected 1 create call, got %d", orderRepo.CreateCallCount)
	}

	stored := orderRepo.GetOrder(order.ID)
	if stored == nil {
		t.Fatal("order not persisted")
	}
	if stored.RouteID != "" {
		t.Error("new order must not have a route")
	}
}

func TestOrder_Create_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	valid := service.CreateOrderRequest{
		OrderNo:     "SF-20260829-002",
		Logistics:   "SF_EXPRESS",
		Origin:      domain.GeoPoint{Lng: 116.40, Lat: 39.90},
		Destination: domain.GeoPoint{Lng: 116.50, Lat: 40.00},
	}

	tests := []struct {
		name    string
		mutate  func(*service.CreateOrderRequest)
		wantErr error
	}{
		{
			name:    "empty order number",
			mutate:  func(r *service.CreateOrderRequest) { r.OrderNo = "" },
			wantErr: service.ErrInvalidOrderNo,
		},
		{
			name:    "origin outside bounds",
			mutate:  func(r *service.CreateOrderRequest) { r.Origin = domain.GeoPoint{Lng: -74.0, Lat: 40.7} },
			wantErr: service.ErrInvalidOrigin,
		},
		{
			name:    "destination outside bounds",
			mutate:  func(r *service.CreateOrderRequest) { r.Destination = domain.GeoPoint{Lng: 139.7, Lat: 35.7} },
			wantErr: service.ErrInvalidDestination,
		},
		{
			name:    "unknown carrier",
			mutate:  func(r *service.CreateOrderRequest) { r.Logistics = "DRONE_EXPRESS" },
			wantErr: domain.ErrUnknownCarrier,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := service.NewOrderService(NewMockOrderRepository(nil), NewMockTimelineRepository())
			req := valid
			tt.mutate(&req)

			_, err := svc.CreateOrder(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOrder_GetTimeline_UnknownOrderFails(t *testing.T) {
	t.Parallel()

	svc := service.NewOrderService(NewMockOrderRepository(nil), NewMockTimelineRepository())

	_, err := svc.GetTimeline(context.Background(), "no-such-order")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 2. BATCH PLANNING THROUGH THE ACQUISITION QUEUE
// ──────────────────────────────────────────────

func TestShipping_PlannerUsesQueueFallbackWhenProviderIsDown(t *testing.T) {
	t.Parallel()

	provider := &StubProvider{Err: errors.New("provider down")}
	queue := routing.NewQueue(provider, time.Millisecond)
	queue.Start()
	defer queue.Stop()

	p := planner.New(queue, planner.WithFactor(func() float64 { return 1.0 }))

	order := &domain.Order{
		ID:          "order-1",
		OrderNo:     "NO-1",
		Status:      domain.OrderStatusPending,
		Logistics:   "SF_EXPRESS",
		Origin:      domain.GeoPoint{Lng: 116.40, Lat: 39.90},
		Destination: domain.GeoPoint{Lng: 116.50, Lat: 40.00},
	}

	routes, err := p.PlanRoutes(context.Background(), []*domain.Order{order})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info := routes["order-1"]
	if len(info.Points) != 20 {
		t.Fatalf("expected 20 fallback points, got %d", len(info.Points))
	}
	if info.Points[0] != order.Origin {
		t.Errorf("route starts at %v, want the origin", info.Points[0])
	}
	if info.Points[19] != order.Destination {
		t.Errorf("route ends at %v, want the destination", info.Points[19])
	}
	if provider.Calls() != 3 {
		t.Errorf("expected 3 provider attempts, got %d", provider.Calls())
	}
}

// ──────────────────────────────────────────────
// 4. DELIVERY REPORTS
// ──────────────────────────────────────────────

func TestReport_SummarizesDeliveredOrder(t *testing.T) {
	t.Parallel()

	routeRepo := NewMockRouteRepository()
	orderRepo := NewMockOrderRepository(routeRepo)
	timelineRepo := NewMockTimelineRepository()

	shippedAt := time.Now().Add(-time.Hour)
	deliveredAt := time.Now()
	orderRepo.AddOrder(&domain.Order{
		ID:          "order-1",
		OrderNo:     "NO-1",
		Status:      domain.OrderStatusDelivered,
		Logistics:   "ZTO",
		Origin:      domain.GeoPoint{Lng: 116.40, Lat: 39.90},
		Destination: domain.GeoPoint{Lng: 116.50, Lat: 40.00},
		RouteID:     "route-1",
		CreatedAt:   shippedAt,
		ActualTime:  deliveredAt,
	})
	routeRepo.AddRoute(&domain.Route{
		ID:      "route-1",
		OrderID: "order-1",
		Points: []domain.GeoPoint{
			{Lng: 116.40, Lat: 39.90},
			{Lng: 116.45, Lat: 39.95},
			{Lng: 116.50, Lat: 40.00},
		},
		TimeArray: []float64{0, 400, 800},
	})
	for _, status := range []string{domain.TimelineShipped, domain.TimelineInTransit, domain.TimelineDelivered} {
		_ = timelineRepo.Append(context.Background(), &domain.TimelineEntry{
			OrderID: "order-1",
			Status:  status,
		})
	}

	svc := service.NewReportService(orderRepo, routeRepo, timelineRepo, service.NewNotificationService())

	report, err := svc.GenerateDeliveryReport(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Status != string(domain.OrderStatusDelivered) {
		t.Errorf("expected DELIVERED status, got %s", report.Status)
	}
	if report.DistanceKm <= 0 {
		t.Errorf("expected positive route distance, got %v", report.DistanceKm)
	}
	if len(report.Milestones) != 3 {
		t.Errorf("expected 3 milestones, got %d", len(report.Milestones))
	}
	if report.DeliveredAt != deliveredAt {
		t.Errorf("expected delivered at %v, got %v", deliveredAt, report.DeliveredAt)
	}

	formatted := svc.FormatReport(report)
	if formatted == "" {
		t.Error("expected formatted report text")
	}
}
