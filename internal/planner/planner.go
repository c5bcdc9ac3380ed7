package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"shiptrack/internal/domain"
	"shiptrack/internal/geo"
	"shiptrack/internal/routing"
)

// ClusterRadiusKm is the maximum great-circle distance for grouping
// destinations into one multi-stop route.
const ClusterRadiusKm = 100.0

var (
	// ErrNoOrders is returned when planning is invoked with an empty batch.
	ErrNoOrders = errors.New("no orders to plan")

	// ErrMixedOrigins is returned when batched orders do not share one
	// dispatch origin.
	ErrMixedOrigins = errors.New("orders do not share a dispatch origin")

	// ErrInvalidCoordinates is returned when any order's coordinates fall
	// outside the service envelope. The whole call fails, nothing is skipped.
	ErrInvalidCoordinates = errors.New("coordinates outside service bounds")
)

// RouteInfo is one order's carved-out share of a stitched multi-stop route.
type RouteInfo struct {
	Points           []domain.GeoPoint
	TimeArray        []float64
	TotalTimeSeconds float64
}

// RouteSource produces a route between two points. Satisfied by
// *routing.Queue.
type RouteSource interface {
	GetRoute(ctx context.Context, origin, destination domain.GeoPoint) routing.Result
}

// Planner turns a batch of orders sharing one dispatch origin into
// per-order routes. Destinations are grouped into proximity clusters, each
// cluster is visited in nearest-neighbor order, segments are stitched into
// one continuous path, and every order gets the path prefix ending at the
// point nearest its own destination.
type Planner struct {
	routes RouteSource
	factor func() float64
}

// Option configures a Planner.
type Option func(*Planner)

// WithFactor overrides the per-cluster variance factor source (used in tests
// to pin the factor).
func WithFactor(factor func() float64) Option {
	return func(p *Planner) { p.factor = factor }
}

// New creates a Planner. By default each cluster draws one variance factor
// uniformly from [0.85, 1.2].
func New(routes RouteSource, opts ...Option) *Planner {
	p := &Planner{
		routes: routes,
		factor: func() float64 { return 0.85 + rand.Float64()*0.35 },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanRoutes plans one route per order. Invalid coordinates or an unknown
// carrier anywhere in the batch fail the whole call.
func (p *Planner) PlanRoutes(ctx context.Context, orders []*domain.Order) (map[string]RouteInfo, error) {
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}

	origin := orders[0].Origin
	for _, order := range orders {
		if order.Origin != origin {
			return nil, fmt.Errorf("%w: order %s", ErrMixedOrigins, order.ID)
		}
		if !geo.Valid(order.Origin) || !geo.Valid(order.Destination) {
			return nil, fmt.Errorf("%w: order %s", ErrInvalidCoordinates, order.ID)
		}
		if _, err := domain.ResolveCarrierSpeed(order.Logistics); err != nil {
			return nil, fmt.Errorf("order %s: %w", order.ID, err)
		}
	}

	result := make(map[string]RouteInfo, len(orders))
	for _, cluster := range clusterByDestination(orders) {
		ordered := orderByNearestNeighbor(origin, cluster)
		if err := p.planCluster(ctx, origin, ordered, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// clusterByDestination groups orders greedily: each unclustered order in turn
// seeds a cluster that absorbs every remaining order within ClusterRadiusKm
// of the seed's destination. Deterministic given input order.
func clusterByDestination(orders []*domain.Order) [][]*domain.Order {
	remaining := append([]*domain.Order(nil), orders...)
	var clusters [][]*domain.Order

	for len(remaining) > 0 {
		seed := remaining[0]
		cluster := []*domain.Order{seed}
		rest := remaining[:0]
		for _, order := range remaining[1:] {
			if geo.Haversine(seed.Destination, order.Destination) <= ClusterRadiusKm {
				cluster = append(cluster, order)
			} else {
				rest = append(rest, order)
			}
		}
		remaining = rest
		clusters = append(clusters, cluster)
	}
	return clusters
}

// orderByNearestNeighbor visits the cluster greedily from the dispatch
// origin, always moving to the closest unvisited destination. Strict
// less-than comparison keeps the earlier order on ties, so the result is
// deterministic.
func orderByNearestNeighbor(origin domain.GeoPoint, cluster []*domain.Order) []*domain.Order {
	unvisited := append([]*domain.Order(nil), cluster...)
	ordered := make([]*domain.Order, 0, len(cluster))
	current := origin

	for len(unvisited) > 0 {
		best := 0
		bestDist := geo.Haversine(current, unvisited[0].Destination)
		for i := 1; i < len(unvisited); i++ {
			if d := geo.Haversine(current, unvisited[i].Destination); d < bestDist {
				best, bestDist = i, d
			}
		}
		next := unvisited[best]
		ordered = append(ordered, next)
		current = next.Destination
		unvisited = append(unvisited[:best], unvisited[best+1:]...)
	}
	return ordered
}

// planCluster stitches one continuous path through the ordered stops, scales
// its time array once for the whole cluster, and carves a prefix route out
// for each order.
func (p *Planner) planCluster(ctx context.Context, origin domain.GeoPoint, ordered []*domain.Order, result map[string]RouteInfo) error {
	var (
		points  []domain.GeoPoint
		times   []float64
		offset  float64
		current = origin
	)

	for _, stop := range ordered {
		segment := p.routes.GetRoute(ctx, current, stop.Destination)

		segPoints, segTimes := segment.Points, segment.TimeArray
		if len(points) > 0 && len(segPoints) > 0 {
			// The segment starts where the previous one ended.
			segPoints, segTimes = segPoints[1:], segTimes[1:]
		}
		points = append(points, segPoints...)
		for _, t := range segTimes {
			times = append(times, t+offset)
		}
		if len(segment.TimeArray) > 0 {
			offset += segment.TimeArray[len(segment.TimeArray)-1]
		}
		current = stop.Destination
	}

	// Cluster-wide scaling: the seed order's carrier sets the speed and one
	// variance factor covers every stop.
	speed, err := domain.ResolveCarrierSpeed(ordered[0].Logistics)
	if err != nil {
		return err
	}
	times = routing.ScaleTimeArray(times, speed, p.factor())

	for _, order := range ordered {
		idx, dist := nearestPointIndex(points, order.Destination)
		if dist > ClusterRadiusKm {
			log.Printf("planner: order %s destination is %.1fkm from nearest stitched point, using it anyway",
				order.ID, dist)
		}
		result[order.ID] = RouteInfo{
			Points:           append([]domain.GeoPoint(nil), points[:idx+1]...),
			TimeArray:        append([]float64(nil), times[:idx+1]...),
			TotalTimeSeconds: times[idx],
		}
	}
	return nil
}

func nearestPointIndex(points []domain.GeoPoint, target domain.GeoPoint) (int, float64) {
	best := 0
	bestDist := geo.Haversine(points[0], target)
	for i := 1; i < len(points); i++ {
		if d := geo.Haversine(points[i], target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
