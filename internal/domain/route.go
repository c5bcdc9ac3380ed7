package domain

import "time"

// Route is the persisted trajectory for one shipped order.
//
// Points[0] is the origin and Points[len-1] the destination. TimeArray is the
// parallel cumulative simulated-delivery-seconds sequence: TimeArray[0] == 0,
// non-decreasing, len(TimeArray) == len(Points). CurrentStep indexes both.
type Route struct {
	ID          string
	OrderID     string
	Points      []GeoPoint
	TimeArray   []float64
	CurrentStep int
	CreatedAt   time.Time
}

// TotalSteps returns the number of points on the route.
func (r *Route) TotalSteps() int {
	return len(r.Points)
}

// Consistent reports whether the route can drive a simulation: at least two
// points with an aligned time array.
func (r *Route) Consistent() bool {
	return len(r.Points) >= 2 && len(r.TimeArray) == len(r.Points)
}

// Progress returns time-based progress in [0,1] at the given step, falling
// back to the step ratio when the time array is unusable.
func (r *Route) Progress(step int) float64 {
	if step < 0 {
		return 0
	}
	if step >= len(r.Points)-1 {
		return 1
	}
	if len(r.TimeArray) == len(r.Points) && r.TimeArray[len(r.TimeArray)-1] > 0 {
		return r.TimeArray[step] / r.TimeArray[len(r.TimeArray)-1]
	}
	return float64(step+1) / float64(len(r.Points))
}
