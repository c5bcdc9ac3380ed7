package geo

import (
	"math"
	"testing"

	"shiptrack/internal/domain"
)

func TestHaversine_KnownDistance(t *testing.T) {
	t.Parallel()

	// Beijing to Shanghai is roughly 1070 km.
	beijing := domain.GeoPoint{Lng: 116.40, Lat: 39.90}
	shanghai := domain.GeoPoint{Lng: 121.47, Lat: 31.23}

	d := Haversine(beijing, shanghai)
	if d < 1050 || d > 1090 {
		t.Errorf("expected ~1070 km, got %f", d)
	}
}

func TestHaversine_ZeroForSamePoint(t *testing.T) {
	t.Parallel()

	p := domain.GeoPoint{Lng: 116.40, Lat: 39.90}
	if d := Haversine(p, p); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	t.Parallel()

	a := domain.GeoPoint{Lng: 116.40, Lat: 39.90}
	b := domain.GeoPoint{Lng: 116.50, Lat: 40.00}

	if d1, d2 := Haversine(a, b), Haversine(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("expected symmetric distance, got %f and %f", d1, d2)
	}
}

func TestInterpolate_Endpoints(t *testing.T) {
	t.Parallel()

	a := domain.GeoPoint{Lng: 116.40, Lat: 39.90}
	b := domain.GeoPoint{Lng: 116.50, Lat: 40.00}

	points := Interpolate(a, b, 20)
	if len(points) != 20 {
		t.Fatalf("expected 20 points, got %d", len(points))
	}
	if points[0] != a {
		t.Errorf("expected first point %v, got %v", a, points[0])
	}
	if points[19] != b {
		t.Errorf("expected last point %v, got %v", b, points[19])
	}

	// Midpoints should be strictly between the endpoints.
	for i := 1; i < 19; i++ {
		if points[i].Lng <= a.Lng || points[i].Lng >= b.Lng {
			t.Errorf("point %d lng %f out of range", i, points[i].Lng)
		}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		point domain.GeoPoint
		want  bool
	}{
		{"inside envelope", domain.GeoPoint{Lng: 116.40, Lat: 39.90}, true},
		{"west of envelope", domain.GeoPoint{Lng: 2.35, Lat: 48.85}, false},
		{"south of envelope", domain.GeoPoint{Lng: 116.40, Lat: 1.0}, false},
		{"nan lng", domain.GeoPoint{Lng: math.NaN(), Lat: 39.90}, false},
		{"inf lat", domain.GeoPoint{Lng: 116.40, Lat: math.Inf(1)}, false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Valid(tc.point); got != tc.want {
				t.Errorf("Valid(%v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}
