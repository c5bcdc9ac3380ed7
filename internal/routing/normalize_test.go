package routing

import (
	"math"
	"testing"

	"shiptrack/internal/domain"
)

func TestReconcileLengths(t *testing.T) {
	t.Parallel()

	points := []domain.GeoPoint{
		{Lng: 116.40, Lat: 39.90},
		{Lng: 116.45, Lat: 39.95},
		{Lng: 116.50, Lat: 40.00},
	}

	testCases := []struct {
		name  string
		times []float64
		want  []float64
	}{
		{"equal length", []float64{0, 10, 20}, []float64{0, 10, 20}},
		{"one longer drops leading zero", []float64{0, 5, 10, 20}, []float64{5, 10, 20}},
		{"longer truncates", []float64{0, 5, 10, 20, 30}, []float64{0, 5, 10}},
		{"shorter pads with last", []float64{0, 10}, []float64{0, 10, 10}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := reconcileLengths(points, tc.times)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d entries, got %d", len(tc.want), len(got))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("entry %d: expected %f, got %f", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestDownsample_PreservesEndpoints(t *testing.T) {
	t.Parallel()

	n := 537
	points := make([]domain.GeoPoint, n)
	times := make([]float64, n)
	for i := 0; i < n; i++ {
		points[i] = domain.GeoPoint{Lng: 100 + float64(i)*0.01, Lat: 30 + float64(i)*0.01}
		times[i] = float64(i) * 7
	}

	outPoints, outTimes := downsample(points, times, maxRoutePoints)

	if len(outPoints) != len(outTimes) {
		t.Fatalf("length mismatch: %d points, %d times", len(outPoints), len(outTimes))
	}
	if len(outPoints) > maxRoutePoints+1 {
		t.Errorf("expected at most %d entries, got %d", maxRoutePoints+1, len(outPoints))
	}
	if outPoints[0] != points[0] || outTimes[0] != times[0] {
		t.Error("first pair not preserved")
	}
	if outPoints[len(outPoints)-1] != points[n-1] || outTimes[len(outTimes)-1] != times[n-1] {
		t.Error("last pair not preserved")
	}
}

func TestNormalizeRoute_DropsOutOfBoundsPoints(t *testing.T) {
	t.Parallel()

	points := []domain.GeoPoint{
		{Lng: 116.40, Lat: 39.90},
		{Lng: 0, Lat: 0}, // Outside the service envelope
		{Lng: 116.50, Lat: 40.00},
	}
	times := []float64{0, 50, 100}

	outPoints, outTimes := normalizeRoute(points, times)

	if len(outPoints) != 2 {
		t.Fatalf("expected 2 points, got %d", len(outPoints))
	}
	if len(outTimes) != 2 {
		t.Fatalf("expected 2 times, got %d", len(outTimes))
	}
	if outTimes[0] != 0 {
		t.Errorf("expected rebased start at 0, got %f", outTimes[0])
	}
	if outTimes[1] != 100 {
		t.Errorf("expected 100, got %f", outTimes[1])
	}
}

func TestNormalizeRoute_NonDecreasing(t *testing.T) {
	t.Parallel()

	points := []domain.GeoPoint{
		{Lng: 116.40, Lat: 39.90},
		{Lng: 116.42, Lat: 39.92},
		{Lng: 116.45, Lat: 39.95},
	}
	times := []float64{10, 5, 30}

	_, outTimes := normalizeRoute(points, times)

	if outTimes[0] != 0 {
		t.Errorf("expected 0, got %f", outTimes[0])
	}
	for i := 1; i < len(outTimes); i++ {
		if outTimes[i] < outTimes[i-1] {
			t.Errorf("time array decreases at %d: %f < %f", i, outTimes[i], outTimes[i-1])
		}
	}
}

func TestScaleTimeArray(t *testing.T) {
	t.Parallel()

	// Carrier speed 0.5 with factor pinned to 1.0 doubles the estimate.
	t0 := []float64{0, 100, 300}
	got := ScaleTimeArray(t0, 0.5, 1.0)

	want := []float64{0, 200, 600}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("entry %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}
