package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shiptrack/internal/domain"
)

// HTTPProvider fetches driving routes from an external drive-direction API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider creates a provider against the given API endpoint. An empty
// baseURL yields a provider that always reports ErrNotConfigured.
func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// driveResponse mirrors the upstream wire format: a route is a list of path
// segments, each optionally carrying a polyline of "lng,lat" tokens and a
// duration in seconds.
type driveResponse struct {
	Status string `json:"status"`
	Route  struct {
		Paths []struct {
			Steps []driveStep `json:"steps"`
		} `json:"paths"`
	} `json:"route"`
}

type driveStep struct {
	Polyline string      `json:"polyline"`
	Duration json.Number `json:"duration"`
}

// FetchRoute requests a driving route between two coordinates.
func (p *HTTPProvider) FetchRoute(ctx context.Context, origin, destination domain.GeoPoint) ([]domain.GeoPoint, []float64, error) {
	if p.baseURL == "" {
		return nil, nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("key", p.apiKey)
	q.Set("origin", fmt.Sprintf("%.6f,%.6f", origin.Lng, origin.Lat))
	q.Set("destination", fmt.Sprintf("%.6f,%.6f", destination.Lng, destination.Lat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("drive api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("drive api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var dr driveResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, nil, fmt.Errorf("decode drive api response: %w", err)
	}

	if dr.Status != "1" || len(dr.Route.Paths) == 0 {
		return nil, nil, ErrNoRoute
	}

	points, timeArray := flattenSteps(dr.Route.Paths[0].Steps)
	if len(points) < 2 {
		return nil, nil, ErrNoRoute
	}
	return points, timeArray, nil
}

// flattenSteps concatenates segment polylines into one point list with a
// cumulative per-point time array. A segment's duration is spread evenly over
// the points it contributes; a segment with a duration but no polyline folds
// its duration into the previous point's cumulative time.
func flattenSteps(steps []driveStep) ([]domain.GeoPoint, []float64) {
	points := []domain.GeoPoint{}
	timeArray := []float64{}
	elapsed := 0.0

	for _, step := range steps {
		duration, _ := step.Duration.Float64()
		segPoints := parsePolyline(step.Polyline)

		if len(segPoints) == 0 {
			// No geometry for this leg; account for its travel time anyway.
			elapsed += duration
			if len(timeArray) > 0 {
				timeArray[len(timeArray)-1] = elapsed
			}
			continue
		}

		if len(points) == 0 {
			points = append(points, segPoints[0])
			timeArray = append(timeArray, elapsed)
			segPoints = segPoints[1:]
		}

		perPoint := duration
		if len(segPoints) > 0 {
			perPoint = duration / float64(len(segPoints))
		}
		for _, pt := range segPoints {
			elapsed += perPoint
			points = append(points, pt)
			timeArray = append(timeArray, elapsed)
		}
	}

	return points, timeArray
}

// parsePolyline decodes a "lng,lat;lng,lat;..." token string, skipping
// malformed pairs.
func parsePolyline(s string) []domain.GeoPoint {
	if s == "" {
		return nil
	}
	tokens := strings.Split(s, ";")
	points := make([]domain.GeoPoint, 0, len(tokens))
	for _, tok := range tokens {
		parts := strings.Split(strings.TrimSpace(tok), ",")
		if len(parts) != 2 {
			continue
		}
		lng, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		points = append(points, domain.GeoPoint{Lng: lng, Lat: lat})
	}
	return points
}
