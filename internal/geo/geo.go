package geo

import (
	"math"

	"shiptrack/internal/domain"
)

const earthRadiusKm = 6371.0

// Service-area envelope. Coordinates outside these bounds are treated as
// invalid and dropped from provider responses.
const (
	MinLng = 73.0
	MaxLng = 135.1
	MinLat = 18.0
	MaxLat = 53.6
)

// Haversine returns the great-circle distance between two points in kilometers.
func Haversine(a, b domain.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dlat := (b.Lat - a.Lat) * math.Pi / 180
	dlng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlng/2), 2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// InBounds reports whether a point lies inside the service-area envelope.
func InBounds(p domain.GeoPoint) bool {
	return p.Lng >= MinLng && p.Lng <= MaxLng && p.Lat >= MinLat && p.Lat <= MaxLat
}

// Valid reports whether a point has finite coordinates inside the envelope.
func Valid(p domain.GeoPoint) bool {
	if math.IsNaN(p.Lng) || math.IsNaN(p.Lat) || math.IsInf(p.Lng, 0) || math.IsInf(p.Lat, 0) {
		return false
	}
	return InBounds(p)
}

// Interpolate returns n evenly spaced points from a to b inclusive. The first
// point equals a and the last equals b exactly.
func Interpolate(a, b domain.GeoPoint, n int) []domain.GeoPoint {
	if n < 2 {
		return []domain.GeoPoint{a, b}
	}
	points := make([]domain.GeoPoint, n)
	points[0] = a
	points[n-1] = b
	for i := 1; i < n-1; i++ {
		frac := float64(i) / float64(n-1)
		points[i] = domain.GeoPoint{
			Lng: a.Lng + (b.Lng-a.Lng)*frac,
			Lat: a.Lat + (b.Lat-a.Lat)*frac,
		}
	}
	return points
}
