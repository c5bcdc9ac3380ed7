package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shiptrack/internal/domain"
)

func TestHTTPProvider_FetchRoute_FlattensSteps(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in request: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "1",
			"route": {
				"paths": [{
					"steps": [
						{"polyline": "116.40,39.90;116.41,39.91;116.42,39.92", "duration": "60"},
						{"polyline": "", "duration": "30"},
						{"polyline": "116.42,39.92;116.43,39.93", "duration": "40"}
					]
				}]
			}
		}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "test-key")

	points, timeArray, err := provider.FetchRoute(context.Background(),
		domain.GeoPoint{Lng: 116.40, Lat: 39.90},
		domain.GeoPoint{Lng: 116.43, Lat: 39.93})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(points) != len(timeArray) {
		t.Fatalf("points/time misaligned: %d vs %d", len(points), len(timeArray))
	}
	if len(points) != 5 {
		t.Fatalf("expected 5 flattened points, got %d", len(points))
	}
	if timeArray[0] != 0 {
		t.Errorf("expected cumulative time to start at 0, got %v", timeArray[0])
	}
	for i := 1; i < len(timeArray); i++ {
		if timeArray[i] < timeArray[i-1] {
			t.Fatalf("cumulative time not monotonic at %d: %v", i, timeArray)
		}
	}
	// 60s first leg + 30s geometry-less leg + 40s second leg.
	if got := timeArray[len(timeArray)-1]; got != 130 {
		t.Errorf("expected 130s total, got %v", got)
	}
	if points[0] != (domain.GeoPoint{Lng: 116.40, Lat: 39.90}) {
		t.Errorf("unexpected first point %v", points[0])
	}
	if points[len(points)-1] != (domain.GeoPoint{Lng: 116.43, Lat: 39.93}) {
		t.Errorf("unexpected last point %v", points[len(points)-1])
	}
}

func TestHTTPProvider_FetchRoute_ErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "0", "route": {"paths": []}}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "test-key")

	_, _, err := provider.FetchRoute(context.Background(),
		domain.GeoPoint{Lng: 116.40, Lat: 39.90},
		domain.GeoPoint{Lng: 116.50, Lat: 40.00})
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestHTTPProvider_FetchRoute_NotConfigured(t *testing.T) {
	t.Parallel()

	provider := NewHTTPProvider("", "")

	_, _, err := provider.FetchRoute(context.Background(),
		domain.GeoPoint{Lng: 116.40, Lat: 39.90},
		domain.GeoPoint{Lng: 116.50, Lat: 40.00})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestParsePolyline_SkipsMalformedPairs(t *testing.T) {
	t.Parallel()

	points := parsePolyline("116.40,39.90;bogus;116.50")
	if len(points) != 1 {
		t.Fatalf("expected 1 valid point, got %d", len(points))
	}
}
