package routing

import (
	"shiptrack/internal/domain"
	"shiptrack/internal/geo"
)

// maxRoutePoints caps provider polylines; longer routes are downsampled.
const maxRoutePoints = 200

// normalizeRoute cleans a provider response into the canonical route shape:
// points inside the service envelope, a time array of equal length rebased to
// start at zero and forced non-decreasing, at most maxRoutePoints entries.
func normalizeRoute(points []domain.GeoPoint, timeArray []float64) ([]domain.GeoPoint, []float64) {
	timeArray = reconcileLengths(points, timeArray)
	points, timeArray = dropInvalidPoints(points, timeArray)
	points, timeArray = downsample(points, timeArray, maxRoutePoints)
	timeArray = rebase(timeArray)
	return points, timeArray
}

// reconcileLengths forces the time sequence to the same length as the point
// sequence: drop the synthetic leading zero when exactly one longer, truncate
// when longer, pad with the last value when short.
func reconcileLengths(points []domain.GeoPoint, timeArray []float64) []float64 {
	switch {
	case len(timeArray) == len(points)+1:
		return timeArray[1:]
	case len(timeArray) > len(points):
		return timeArray[:len(points)]
	case len(timeArray) < len(points):
		out := make([]float64, len(points))
		copy(out, timeArray)
		last := 0.0
		if len(timeArray) > 0 {
			last = timeArray[len(timeArray)-1]
		}
		for i := len(timeArray); i < len(points); i++ {
			out[i] = last
		}
		return out
	default:
		return timeArray
	}
}

// dropInvalidPoints removes point/time pairs outside the service envelope.
func dropInvalidPoints(points []domain.GeoPoint, timeArray []float64) ([]domain.GeoPoint, []float64) {
	outPoints := points[:0:0]
	outTimes := timeArray[:0:0]
	for i, p := range points {
		if !geo.Valid(p) {
			continue
		}
		outPoints = append(outPoints, p)
		outTimes = append(outTimes, timeArray[i])
	}
	return outPoints, outTimes
}

// downsample reduces paired sequences to at most limit entries by fixed stride,
// always keeping the first and last pair.
func downsample(points []domain.GeoPoint, timeArray []float64, limit int) ([]domain.GeoPoint, []float64) {
	if len(points) <= limit {
		return points, timeArray
	}

	stride := (len(points) + limit - 1) / limit
	outPoints := make([]domain.GeoPoint, 0, limit)
	outTimes := make([]float64, 0, limit)
	for i := 0; i < len(points); i += stride {
		outPoints = append(outPoints, points[i])
		outTimes = append(outTimes, timeArray[i])
	}

	last := len(points) - 1
	if outPoints[len(outPoints)-1] != points[last] || outTimes[len(outTimes)-1] != timeArray[last] {
		outPoints = append(outPoints, points[last])
		outTimes = append(outTimes, timeArray[last])
	}
	return outPoints, outTimes
}

// rebase shifts a cumulative time array so it starts at zero and never
// decreases.
func rebase(timeArray []float64) []float64 {
	if len(timeArray) == 0 {
		return timeArray
	}
	base := timeArray[0]
	out := make([]float64, len(timeArray))
	for i, t := range timeArray {
		out[i] = t - base
		if i > 0 && out[i] < out[i-1] {
			out[i] = out[i-1]
		}
	}
	return out
}

// ScaleTimeArray converts a provider time estimate into simulated real
// delivery time: each entry is divided by the carrier speed coefficient and
// multiplied by the per-shipment variance factor.
func ScaleTimeArray(t0 []float64, speed, factor float64) []float64 {
	out := make([]float64, len(t0))
	for i, t := range t0 {
		out[i] = t / speed * factor
	}
	return out
}
