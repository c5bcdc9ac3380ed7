package planner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"shiptrack/internal/domain"
	"shiptrack/internal/routing"
)

// stubSource returns a three-point straight segment with 60s legs.
type stubSource struct {
	calls int32
}

func (s *stubSource) GetRoute(ctx context.Context, origin, destination domain.GeoPoint) routing.Result {
	atomic.AddInt32(&s.calls, 1)
	mid := domain.GeoPoint{
		Lng: (origin.Lng + destination.Lng) / 2,
		Lat: (origin.Lat + destination.Lat) / 2,
	}
	return routing.Result{
		Points:    []domain.GeoPoint{origin, mid, destination},
		TimeArray: []float64{0, 60, 120},
	}
}

func pinnedFactor() Option {
	return WithFactor(func() float64 { return 1.0 })
}

func testOrder(id string, dest domain.GeoPoint) *domain.Order {
	return &domain.Order{
		ID:          id,
		OrderNo:     "NO-" + id,
		Status:      domain.OrderStatusPending,
		Logistics:   "SF_EXPRESS",
		Origin:      domain.GeoPoint{Lng: 116.40, Lat: 39.90},
		Destination: dest,
	}
}

func TestPlanRoutes_StitchesClusterIntoPrefixRoutes(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	p := New(src, pinnedFactor())

	// Both destinations are within the cluster radius of each other, so one
	// cluster is visited nearest first.
	near := testOrder("near", domain.GeoPoint{Lng: 116.50, Lat: 40.00})
	far := testOrder("far", domain.GeoPoint{Lng: 116.60, Lat: 40.10})

	routes, err := p.PlanRoutes(context.Background(), []*domain.Order{far, near})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if got := atomic.LoadInt32(&src.calls); got != 2 {
		t.Errorf("expected 2 segment fetches, got %d", got)
	}

	nearRoute, farRoute := routes["near"], routes["far"]

	// The near order's route ends at its own destination, partway along the
	// stitched path.
	if got := nearRoute.Points[len(nearRoute.Points)-1]; got != near.Destination {
		t.Errorf("near route ends at %v, want %v", got, near.Destination)
	}
	if got := farRoute.Points[len(farRoute.Points)-1]; got != far.Destination {
		t.Errorf("far route ends at %v, want %v", got, far.Destination)
	}
	if len(nearRoute.Points) >= len(farRoute.Points) {
		t.Errorf("near route (%d points) must be a strict prefix of far route (%d points)",
			len(nearRoute.Points), len(farRoute.Points))
	}
	for i, pt := range nearRoute.Points {
		if farRoute.Points[i] != pt {
			t.Fatalf("point %d differs between prefix routes: %v vs %v", i, pt, farRoute.Points[i])
		}
	}

	// Shared-vertex de-duplication: 3+3 points with one shared vertex.
	if len(farRoute.Points) != 5 {
		t.Errorf("expected 5 stitched points, got %d", len(farRoute.Points))
	}

	// Cumulative time is monotonic across the segment boundary, and the
	// total matches the route's last entry.
	for i := 1; i < len(farRoute.TimeArray); i++ {
		if farRoute.TimeArray[i] < farRoute.TimeArray[i-1] {
			t.Fatalf("time array not monotonic at %d: %v", i, farRoute.TimeArray)
		}
	}
	if farRoute.TotalTimeSeconds != farRoute.TimeArray[len(farRoute.TimeArray)-1] {
		t.Errorf("total %v does not match last time entry %v",
			farRoute.TotalTimeSeconds, farRoute.TimeArray[len(farRoute.TimeArray)-1])
	}
	if farRoute.TotalTimeSeconds != 240 {
		t.Errorf("expected 240s stitched total at speed 1.0 and factor 1.0, got %v", farRoute.TotalTimeSeconds)
	}
	if nearRoute.TotalTimeSeconds != 120 {
		t.Errorf("expected 120s prefix total, got %v", nearRoute.TotalTimeSeconds)
	}
}

func TestPlanRoutes_DistantDestinationsFormSeparateClusters(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	p := New(src, pinnedFactor())

	beijing := testOrder("bj", domain.GeoPoint{Lng: 116.50, Lat: 40.00})
	shanghai := testOrder("sh", domain.GeoPoint{Lng: 121.47, Lat: 31.23})

	routes, err := p.PlanRoutes(context.Background(), []*domain.Order{beijing, shanghai})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Separate clusters both start from the dispatch origin.
	for id, info := range routes {
		if info.Points[0] != beijing.Origin {
			t.Errorf("route %s starts at %v, want the dispatch origin", id, info.Points[0])
		}
		if info.TimeArray[0] != 0 {
			t.Errorf("route %s time array starts at %v, want 0", id, info.TimeArray[0])
		}
	}
	if routes["sh"].Points[len(routes["sh"].Points)-1] != shanghai.Destination {
		t.Error("shanghai route must end at its own destination")
	}
}

func TestPlanRoutes_CarrierSpeedStretchesTimeArray(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	p := New(src, pinnedFactor())

	order := testOrder("slow", domain.GeoPoint{Lng: 116.50, Lat: 40.00})
	order.Logistics = "EMS" // speed 0.7

	routes, err := p.PlanRoutes(context.Background(), []*domain.Order{order})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := 120.0 / 0.7
	got := routes["slow"].TotalTimeSeconds
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected total %v for EMS, got %v", want, got)
	}
}

func TestPlanRoutes_InvalidInputFailsWholeCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		orders  []*domain.Order
		wantErr error
	}{
		{
			name:    "empty batch",
			orders:  nil,
			wantErr: ErrNoOrders,
		},
		{
			name: "mixed origins",
			orders: func() []*domain.Order {
				a := testOrder("a", domain.GeoPoint{Lng: 116.50, Lat: 40.00})
				b := testOrder("b", domain.GeoPoint{Lng: 116.51, Lat: 40.01})
				b.Origin = domain.GeoPoint{Lng: 117.00, Lat: 39.00}
				return []*domain.Order{a, b}
			}(),
			wantErr: ErrMixedOrigins,
		},
		{
			name: "destination outside bounds",
			orders: []*domain.Order{
				testOrder("a", domain.GeoPoint{Lng: 116.50, Lat: 40.00}),
				testOrder("b", domain.GeoPoint{Lng: 2.35, Lat: 48.85}),
			},
			wantErr: ErrInvalidCoordinates,
		},
		{
			name: "unknown carrier",
			orders: func() []*domain.Order {
				a := testOrder("a", domain.GeoPoint{Lng: 116.50, Lat: 40.00})
				a.Logistics = "CARRIER_PIGEON"
				return []*domain.Order{a}
			}(),
			wantErr: domain.ErrUnknownCarrier,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := New(&stubSource{}, pinnedFactor())
			_, err := p.PlanRoutes(context.Background(), tt.orders)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
