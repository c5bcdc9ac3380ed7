package sim

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"shiptrack/internal/broadcast"
	"shiptrack/internal/domain"
	"shiptrack/internal/geo"
	redisstore "shiptrack/internal/redis"
	"shiptrack/internal/repository"
)

const (
	// DefaultSpeedFactor compresses simulated delivery seconds into
	// wall-clock seconds: 900 delivery seconds pass per real second.
	DefaultSpeedFactor = 900.0

	// minStepSeconds floors the simulated gap between two consecutive steps.
	minStepSeconds = 0.1

	advanceTimeout = 10 * time.Second
)

// Milestone progress bands, half-open so each fires at most once.
const (
	inTransitLow  = 0.30
	inTransitHigh = 0.35
	outForDelLow  = 0.70
	outForDelHigh = 0.75
)

// trajectoryTimer owns the scheduled callbacks for one in-transit order.
type trajectoryTimer struct {
	orderID   string
	routeID   string
	timers    []*time.Timer
	startedAt time.Time
}

// Simulator advances shipped orders along their persisted routes in real
// time. It owns one trajectory timer per in-transit order; timers are created
// on ship or on restart recovery and destroyed on completion or cancellation.
//
// All callback delays are computed from a single start instant, not chained
// from the previous callback, so scheduling does not accumulate drift.
type Simulator struct {
	orders    repository.OrderRepository
	routes    repository.RouteRepository
	timeline  repository.TimelineRepository
	events    broadcast.Broadcaster
	locations redisstore.LocationStoreInterface // optional position mirror

	speedFactor float64
	now         func() time.Time

	mu     sync.Mutex
	timers map[string]*trajectoryTimer
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithSpeedFactor overrides the wall-clock compression ratio.
func WithSpeedFactor(factor float64) Option {
	return func(s *Simulator) {
		if factor > 0 {
			s.speedFactor = factor
		}
	}
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithLocationStore mirrors step positions into a Redis geo index.
func WithLocationStore(store redisstore.LocationStoreInterface) Option {
	return func(s *Simulator) { s.locations = store }
}

// New creates a Simulator.
func New(
	orders repository.OrderRepository,
	routes repository.RouteRepository,
	timeline repository.TimelineRepository,
	events broadcast.Broadcaster,
	opts ...Option,
) *Simulator {
	s := &Simulator{
		orders:      orders,
		routes:      routes,
		timeline:    timeline,
		events:      events,
		speedFactor: DefaultSpeedFactor,
		now:         time.Now,
		timers:      make(map[string]*trajectoryTimer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartTimer begins simulation for a freshly shipped order. It is benign when
// the order is not in a shippable state or has no usable route: the problem
// is logged and no timer is created.
func (s *Simulator) StartTimer(ctx context.Context, orderID string) {
	order, route, ok := s.loadDrivable(ctx, orderID)
	if !ok {
		return
	}
	s.schedule(order, route, route.CurrentStep, route.TimeArray[route.CurrentStep])
}

// StopTimer cancels every pending callback for an order. Safe to call when no
// timer exists.
func (s *Simulator) StopTimer(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tt, ok := s.timers[orderID]
	if !ok {
		return
	}
	for _, t := range tt.timers {
		t.Stop()
	}
	delete(s.timers, orderID)
}

// Shutdown stops every active timer.
func (s *Simulator) Shutdown() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.StopTimer(id)
	}
}

// RecoverAllInTransit reconstructs timers for every order still SHIPPING,
// typically once at process start. Recovery is idempotent: orders that
// already have a timer are left alone.
func (s *Simulator) RecoverAllInTransit(ctx context.Context) error {
	orders, err := s.orders.GetByStatus(ctx, domain.OrderStatusShipping)
	if err != nil {
		return err
	}
	for _, order := range orders {
		s.Resume(ctx, order.ID)
	}
	return nil
}

// Resume recomputes an in-transit order's progress from wall-clock elapsed
// time, jumps it to the matching step, and reschedules only the remaining
// callbacks relative to now. If the elapsed time already covers the whole
// route the order is completed immediately.
func (s *Simulator) Resume(ctx context.Context, orderID string) {
	if s.hasTimer(orderID) {
		return
	}

	order, route, ok := s.loadDrivable(ctx, orderID)
	if !ok {
		return
	}

	elapsed := s.now().Sub(order.CreatedAt).Seconds() * s.speedFactor
	if elapsed < 0 {
		elapsed = 0
	}

	last := len(route.TimeArray) - 1
	if elapsed >= route.TimeArray[last] {
		if err := s.advance(ctx, orderID, last); err != nil {
			log.Printf("sim: complete on resume order=%s: %v", orderID, err)
		}
		return
	}

	// Largest index whose cumulative time is within the elapsed budget. Never
	// behind the persisted step: positions do not move backwards.
	step := 0
	for i := last; i >= 0; i-- {
		if route.TimeArray[i] <= elapsed {
			step = i
			break
		}
	}
	if step < route.CurrentStep {
		step = route.CurrentStep
		if elapsed < route.TimeArray[step] {
			elapsed = route.TimeArray[step]
		}
	}

	if step > route.CurrentStep {
		if err := s.advance(ctx, orderID, step); err != nil {
			log.Printf("sim: jump on resume order=%s step=%d: %v", orderID, step, err)
		}
		route.CurrentStep = step
	}

	s.schedule(order, route, step, elapsed)
}

// AdvanceOneStep advances an order by exactly one step, bypassing timers.
// Operator and test hook.
func (s *Simulator) AdvanceOneStep(ctx context.Context, orderID string) error {
	route, err := s.routes.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if route.CurrentStep >= route.TotalSteps()-1 {
		return nil
	}
	return s.advance(ctx, orderID, route.CurrentStep+1)
}

// loadDrivable loads an order and its route and verifies the simulator can
// drive them. Inconsistent records are logged and skipped, never fatal.
func (s *Simulator) loadDrivable(ctx context.Context, orderID string) (*domain.Order, *domain.Route, bool) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		log.Printf("sim: load order %s: %v", orderID, err)
		return nil, nil, false
	}
	if order.Status != domain.OrderStatusShipping {
		log.Printf("sim: order %s not in transit (status=%s), skipping timer", orderID, order.Status)
		return nil, nil, false
	}

	route, err := s.routes.GetByOrderID(ctx, orderID)
	if err != nil {
		log.Printf("sim: load route for order %s: %v", orderID, err)
		return nil, nil, false
	}
	if !route.Consistent() {
		log.Printf("sim: route %s inconsistent (points=%d times=%d), skipping timer",
			route.ID, len(route.Points), len(route.TimeArray))
		return nil, nil, false
	}
	if route.CurrentStep < 0 || route.CurrentStep >= route.TotalSteps() {
		log.Printf("sim: route %s current step %d out of range, skipping timer", route.ID, route.CurrentStep)
		return nil, nil, false
	}
	return order, route, true
}

// schedule registers one delayed callback per remaining step transition.
// elapsedSim is the simulated-seconds offset the order has already covered;
// each callback's wall-clock delay is its cumulative offset from that origin,
// with consecutive targets floored minStepSeconds apart.
func (s *Simulator) schedule(order *domain.Order, route *domain.Route, fromStep int, elapsedSim float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.timers[order.ID]; exists {
		return
	}

	tt := &trajectoryTimer{
		orderID:   order.ID,
		routeID:   route.ID,
		startedAt: s.now(),
	}

	last := route.TotalSteps() - 1
	prev := elapsedSim
	for i := fromStep + 1; i <= last; i++ {
		target := route.TimeArray[i]
		if target < prev+minStepSeconds {
			target = prev + minStepSeconds
		}
		prev = target

		delay := time.Duration((target - elapsedSim) / s.speedFactor * float64(time.Second))
		step := i
		tt.timers = append(tt.timers, time.AfterFunc(delay, func() {
			s.fire(order.ID, step, step == last)
		}))
	}

	s.timers[order.ID] = tt
}

func (s *Simulator) fire(orderID string, step int, final bool) {
	ctx, cancel := context.WithTimeout(context.Background(), advanceTimeout)
	defer cancel()

	// A failed step write must not stall the order: later callbacks are
	// already scheduled and positions are idempotent re-computations.
	if err := s.advance(ctx, orderID, step); err != nil {
		log.Printf("sim: advance order=%s step=%d: %v", orderID, step, err)
	}
	if final {
		s.StopTimer(orderID)
	}
}

// advance moves an order to the given step: either a position update or, on
// the final index, the completion transition.
func (s *Simulator) advance(ctx context.Context, orderID string, step int) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderStatusShipping {
		return nil
	}

	route, err := s.routes.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if step < 0 || step >= route.TotalSteps() {
		return nil
	}

	point := route.Points[step]
	if !geo.Valid(point) {
		log.Printf("sim: route %s step %d has invalid point %v, skipping", route.ID, step, point)
		return nil
	}

	if step == route.TotalSteps()-1 {
		return s.complete(ctx, order, point, step)
	}

	if err := s.orders.AdvanceProgress(ctx, orderID, point, step); err != nil {
		return err
	}
	if s.locations != nil {
		if err := s.locations.UpdateLocation(ctx, orderID, point.Lng, point.Lat); err != nil {
			log.Printf("sim: mirror location order=%s: %v", orderID, err)
		}
	}

	progress := route.Progress(step)
	s.checkMilestones(ctx, order, progress)

	if err := s.events.PublishPosition(ctx, broadcast.PositionUpdate{
		OrderNo:     order.OrderNo,
		Location:    point,
		Progress:    progress * 100,
		CurrentStep: step,
	}); err != nil {
		log.Printf("sim: publish position order=%s: %v", order.OrderNo, err)
	}
	return nil
}

func (s *Simulator) complete(ctx context.Context, order *domain.Order, point domain.GeoPoint, step int) error {
	deliveredAt := s.now()
	if err := s.orders.MarkDelivered(ctx, order.ID, point, step, deliveredAt); err != nil {
		return err
	}

	s.appendMilestone(ctx, order.ID, domain.TimelineDelivered, "Package delivered")
	if s.locations != nil {
		_ = s.locations.RemoveLocation(ctx, order.ID)
	}

	if err := s.events.PublishCompletion(ctx, broadcast.Completion{
		OrderNo:    order.OrderNo,
		Status:     string(domain.OrderStatusDelivered),
		ActualTime: deliveredAt,
	}); err != nil {
		log.Printf("sim: publish completion order=%s: %v", order.OrderNo, err)
	}
	return nil
}

// checkMilestones records the one-time 30% and 70% markers when time-based
// progress first lands inside their bands.
func (s *Simulator) checkMilestones(ctx context.Context, order *domain.Order, progress float64) {
	switch {
	case progress >= inTransitLow && progress < inTransitHigh:
		s.recordMilestoneOnce(ctx, order, domain.TimelineInTransit, "Package in transit")
	case progress >= outForDelLow && progress < outForDelHigh:
		s.recordMilestoneOnce(ctx, order, domain.TimelineOutForDelivery, "Package out for delivery")
	}
}

func (s *Simulator) recordMilestoneOnce(ctx context.Context, order *domain.Order, status, description string) {
	recorded, err := s.timeline.HasStatus(ctx, order.ID, status)
	if err != nil {
		log.Printf("sim: check milestone %s order=%s: %v", status, order.ID, err)
		return
	}
	if recorded {
		return
	}

	s.appendMilestone(ctx, order.ID, status, description)

	if err := s.events.PublishStatus(ctx, broadcast.StatusUpdate{
		OrderNo: order.OrderNo,
		Status:  status,
		Message: description,
	}); err != nil {
		log.Printf("sim: publish status order=%s: %v", order.OrderNo, err)
	}
}

func (s *Simulator) appendMilestone(ctx context.Context, orderID, status, description string) {
	err := s.timeline.Append(ctx, &domain.TimelineEntry{
		ID:          uuid.New().String(),
		OrderID:     orderID,
		Status:      status,
		Description: description,
		CreatedAt:   s.now(),
	})
	if err != nil {
		log.Printf("sim: append timeline %s order=%s: %v", status, orderID, err)
	}
}

func (s *Simulator) hasTimer(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[orderID]
	return ok
}

// ActiveTimers returns the number of orders currently being driven.
func (s *Simulator) ActiveTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
