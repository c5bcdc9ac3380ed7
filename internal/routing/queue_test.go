package routing

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"shiptrack/internal/domain"
	"shiptrack/internal/geo"
)

// stubProvider is a scriptable routing provider.
type stubProvider struct {
	calls  int32
	points []domain.GeoPoint
	times  []float64
	err    error

	// failFirst makes the provider fail this many calls before succeeding.
	failFirst int32
}

func (p *stubProvider) FetchRoute(ctx context.Context, origin, destination domain.GeoPoint) ([]domain.GeoPoint, []float64, error) {
	n := atomic.AddInt32(&p.calls, 1)
	if p.err != nil && n <= p.failFirst {
		return nil, nil, p.err
	}
	if p.err != nil && p.failFirst == 0 {
		return nil, nil, p.err
	}
	return p.points, p.times, nil
}

func newTestQueue(p Provider) *Queue {
	q := NewQueue(p, time.Millisecond)
	q.Start()
	return q
}

func TestGetRoute_ProviderSuccess(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		points: []domain.GeoPoint{
			{Lng: 116.40, Lat: 39.90},
			{Lng: 116.45, Lat: 39.95},
			{Lng: 116.50, Lat: 40.00},
		},
		times: []float64{0, 600, 1200},
	}
	q := newTestQueue(provider)
	defer q.Stop()

	res := q.GetRoute(context.Background(), provider.points[0], provider.points[2])

	if res.Fallback {
		t.Error("expected provider route, got fallback")
	}
	if len(res.Points) != len(res.TimeArray) {
		t.Fatalf("length mismatch: %d points, %d times", len(res.Points), len(res.TimeArray))
	}
	if len(res.Points) < 2 {
		t.Fatalf("expected at least 2 points, got %d", len(res.Points))
	}
	if res.TimeArray[0] != 0 {
		t.Errorf("expected timeArray[0] == 0, got %f", res.TimeArray[0])
	}
	for i := 1; i < len(res.TimeArray); i++ {
		if res.TimeArray[i] < res.TimeArray[i-1] {
			t.Errorf("time array decreases at %d", i)
		}
	}
}

func TestGetRoute_FallbackAfterExhaustedRetries(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{err: errors.New("upstream down")}
	q := newTestQueue(provider)
	defer q.Stop()

	origin := domain.GeoPoint{Lng: 116.40, Lat: 39.90}
	destination := domain.GeoPoint{Lng: 116.50, Lat: 40.00}

	res := q.GetRoute(context.Background(), origin, destination)

	if !res.Fallback {
		t.Fatal("expected fallback route")
	}
	if got := atomic.LoadInt32(&provider.calls); got != maxAttempts {
		t.Errorf("expected %d provider attempts, got %d", maxAttempts, got)
	}
	if len(res.Points) != fallbackPoints {
		t.Fatalf("expected %d points, got %d", fallbackPoints, len(res.Points))
	}
	if res.Points[0] != origin {
		t.Errorf("expected first point %v, got %v", origin, res.Points[0])
	}
	if res.Points[len(res.Points)-1] != destination {
		t.Errorf("expected last point %v, got %v", destination, res.Points[len(res.Points)-1])
	}

	distanceKm := geo.Haversine(origin, destination)
	wantTotal := distanceKm / fallbackSpeedKmh * 3600
	gotTotal := res.TimeArray[len(res.TimeArray)-1]
	if math.Abs(gotTotal-wantTotal) > 1e-9 {
		t.Errorf("expected total time %f, got %f", wantTotal, gotTotal)
	}
	if res.TimeArray[0] != 0 {
		t.Errorf("expected timeArray[0] == 0, got %f", res.TimeArray[0])
	}
}

func TestGetRoute_RecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		err:       errors.New("flaky"),
		failFirst: 1,
		points: []domain.GeoPoint{
			{Lng: 116.40, Lat: 39.90},
			{Lng: 116.50, Lat: 40.00},
		},
		times: []float64{0, 900},
	}
	q := newTestQueue(provider)
	defer q.Stop()

	res := q.GetRoute(context.Background(), provider.points[0], provider.points[1])

	if res.Fallback {
		t.Error("expected provider route after retry, got fallback")
	}
	if got := atomic.LoadInt32(&provider.calls); got != 2 {
		t.Errorf("expected 2 provider attempts, got %d", got)
	}
}

func TestGetRoute_SerializesConcurrentRequests(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		points: []domain.GeoPoint{
			{Lng: 116.40, Lat: 39.90},
			{Lng: 116.50, Lat: 40.00},
		},
		times: []float64{0, 900},
	}
	q := newTestQueue(provider)
	defer q.Stop()

	const n = 5
	done := make(chan Result, n)
	for i := 0; i < n; i++ {
		go func() {
			done <- q.GetRoute(context.Background(), provider.points[0], provider.points[1])
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case res := <-done:
			if len(res.Points) < 2 {
				t.Errorf("request %d: unusable route", i)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for queued requests")
		}
	}

	if got := atomic.LoadInt32(&provider.calls); got != n {
		t.Errorf("expected %d provider calls, got %d", n, got)
	}
}

func TestGetRoute_CancelledContextFallsBack(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		points: []domain.GeoPoint{
			{Lng: 116.40, Lat: 39.90},
			{Lng: 116.50, Lat: 40.00},
		},
		times: []float64{0, 900},
	}
	// Queue never started: requests stay pending.
	q := NewQueue(provider, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := q.GetRoute(ctx, provider.points[0], provider.points[1])
	if !res.Fallback {
		t.Error("expected fallback for cancelled context")
	}
}
