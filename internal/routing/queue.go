package routing

import (
	"context"
	"log"
	"sync"
	"time"

	"shiptrack/internal/domain"
	"shiptrack/internal/geo"
)

const (
	// defaultInterval is the mandatory delay between provider calls.
	defaultInterval = 500 * time.Millisecond

	// maxAttempts bounds provider retries before the fallback is produced.
	maxAttempts = 3

	// fallbackPoints is the length of the straight-line fallback route.
	fallbackPoints = 20

	// fallbackSpeedKmh is the assumed constant speed for fallback timing.
	fallbackSpeedKmh = 60.0
)

// Result is a resolved route request.
type Result struct {
	Points    []domain.GeoPoint
	TimeArray []float64
	Fallback  bool
}

// request is a queued route acquisition with its retry counter.
type request struct {
	origin      domain.GeoPoint
	destination domain.GeoPoint
	attempt     int
	done        chan Result
}

// Queue serializes calls to a routing provider at a fixed cadence.
//
// All requests enter a single FIFO; one drain loop processes them with a
// mandatory inter-request delay. Failed requests are re-enqueued at the back
// up to maxAttempts, after which a deterministic straight-line fallback
// resolves the request. GetRoute therefore never returns an error.
type Queue struct {
	provider Provider
	interval time.Duration

	mu      sync.Mutex
	pending []*request
	wake    chan struct{}
	stop    chan struct{}
	stopped sync.Once
	started sync.Once
}

// NewQueue creates a route acquisition queue over the given provider.
// A non-positive interval uses the default cadence.
func NewQueue(provider Provider, interval time.Duration) *Queue {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Queue{
		provider: provider,
		interval: interval,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Start launches the drain loop. Safe to call more than once.
func (q *Queue) Start() {
	q.started.Do(func() {
		go q.drain()
	})
}

// Stop terminates the drain loop. Requests still pending resolve with the
// fallback route.
func (q *Queue) Stop() {
	q.stopped.Do(func() {
		close(q.stop)
	})
}

// GetRoute resolves a route between two coordinates. It always produces a
// usable route: on provider failure or context cancellation the straight-line
// fallback is returned.
func (q *Queue) GetRoute(ctx context.Context, origin, destination domain.GeoPoint) Result {
	req := &request{
		origin:      origin,
		destination: destination,
		done:        make(chan Result, 1),
	}
	q.enqueue(req)

	select {
	case res := <-req.done:
		return res
	case <-ctx.Done():
		return fallbackRoute(origin, destination)
	case <-q.stop:
		return fallbackRoute(origin, destination)
	}
}

func (q *Queue) enqueue(req *request) {
	q.mu.Lock()
	q.pending = append(q.pending, req)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) dequeue() *request {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	req := q.pending[0]
	q.pending = q.pending[1:]
	return req
}

// drain is the single processing loop. It pops one request, calls the
// provider, and always sleeps the fixed interval before the next call
// regardless of outcome.
func (q *Queue) drain() {
	for {
		req := q.dequeue()
		if req == nil {
			select {
			case <-q.wake:
				continue
			case <-q.stop:
				return
			}
		}

		q.process(req)

		select {
		case <-time.After(q.interval):
		case <-q.stop:
			return
		}
	}
}

func (q *Queue) process(req *request) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	points, timeArray, err := q.provider.FetchRoute(ctx, req.origin, req.destination)
	cancel()

	if err == nil {
		points, timeArray = normalizeRoute(points, timeArray)
		if len(points) >= 2 {
			req.done <- Result{Points: points, TimeArray: timeArray}
			return
		}
		err = ErrNoRoute
	}

	req.attempt++
	if req.attempt < maxAttempts {
		// Back of the queue, not the front.
		q.enqueue(req)
		return
	}

	log.Printf("routing: provider failed after %d attempts (%v), using fallback", req.attempt, err)
	req.done <- fallbackRoute(req.origin, req.destination)
}

// fallbackRoute builds the deterministic straight-line route: evenly spaced
// interpolated points with a time array derived from great-circle distance at
// a constant speed.
func fallbackRoute(origin, destination domain.GeoPoint) Result {
	points := geo.Interpolate(origin, destination, fallbackPoints)

	distanceKm := geo.Haversine(origin, destination)
	totalSeconds := distanceKm / fallbackSpeedKmh * 3600

	timeArray := make([]float64, len(points))
	for i := range timeArray {
		timeArray[i] = totalSeconds * float64(i) / float64(len(points)-1)
	}

	return Result{Points: points, TimeArray: timeArray, Fallback: true}
}
