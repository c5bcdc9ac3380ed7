package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"shiptrack/internal/broadcast"
	"shiptrack/internal/domain"
	"shiptrack/internal/planner"
	"shiptrack/internal/redis"
	"shiptrack/internal/repository"
	"shiptrack/internal/repository/postgres"
	"shiptrack/internal/routing"
	"shiptrack/internal/sim"
)

// orderLockTTL bounds how long a ship or cancel may hold an order lock.
const orderLockTTL = 30 * time.Second

// ShippingService drives the order lifecycle: ship, batch ship, cancel, and
// tracking reads. Route acquisition goes through the serialized queue; once
// shipped, the simulator owns all position advancement.
type ShippingService struct {
	db           *sql.DB
	orderRepo    repository.OrderRepository
	routeRepo    repository.RouteRepository
	timelineRepo repository.TimelineRepository
	queue        *routing.Queue
	planner      *planner.Planner
	simulator    *sim.Simulator
	events       broadcast.Broadcaster
	notifier     *NotificationService
	locks        redis.LockStoreInterface
	locations    redis.LocationStoreInterface
	cache        *redis.CacheStore

	factor func() float64
	now    func() time.Time
}

// NewShippingService creates a new ShippingService. The cache store may be
// nil; tracking then always reads through to the database.
func NewShippingService(
	db *sql.DB,
	orderRepo repository.OrderRepository,
	routeRepo repository.RouteRepository,
	timelineRepo repository.TimelineRepository,
	queue *routing.Queue,
	routePlanner *planner.Planner,
	simulator *sim.Simulator,
	events broadcast.Broadcaster,
	notifier *NotificationService,
	locks redis.LockStoreInterface,
	locations redis.LocationStoreInterface,
	cache *redis.CacheStore,
) *ShippingService {
	return &ShippingService{
		db:           db,
		orderRepo:    orderRepo,
		routeRepo:    routeRepo,
		timelineRepo: timelineRepo,
		queue:        queue,
		planner:      routePlanner,
		simulator:    simulator,
		events:       events,
		notifier:     notifier,
		locks:        locks,
		locations:    locations,
		cache:        cache,
		factor:       func() float64 { return 0.85 + rand.Float64()*0.35 },
		now:          time.Now,
	}
}

// Ship moves a PENDING order into transit: acquires a route, scales its time
// array by the carrier speed and a per-shipment variance factor, persists
// route and order atomically, and hands the order to the simulator.
func (s *ShippingService) Ship(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	acquired, err := s.locks.AcquireOrderLock(ctx, orderID, orderLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrOrderLocked
	}
	defer func() {
		if err := s.locks.ReleaseOrderLock(ctx, orderID); err != nil {
			log.Printf("shipping: release lock order=%s: %v", orderID, err)
		}
	}()

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, ErrOrderNotShippable
	}

	speed, err := domain.ResolveCarrierSpeed(order.Logistics)
	if err != nil {
		return nil, err
	}

	// Never fails: the queue falls back to straight-line interpolation.
	result := s.queue.GetRoute(ctx, order.Origin, order.Destination)
	timeArray := routing.ScaleTimeArray(result.TimeArray, speed, s.factor())

	route := &domain.Route{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		Points:    result.Points,
		TimeArray: timeArray,
		CreatedAt: s.now(),
	}

	if err := s.persistShipment(ctx, order, route); err != nil {
		return nil, err
	}

	s.afterShip(ctx, order)
	return order, nil
}

// ShipBatch ships multiple PENDING orders dispatched from one origin,
// planning their routes jointly so nearby destinations share a stitched
// multi-stop path.
func (s *ShippingService) ShipBatch(ctx context.Context, orderIDs []string) ([]*domain.Order, error) {
	if len(orderIDs) == 0 {
		return nil, ErrEmptyBatch
	}

	orders := make([]*domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		if id == "" {
			return nil, ErrInvalidOrderID
		}
		order, err := s.orderRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", id, err)
		}
		if order.Status != domain.OrderStatusPending {
			return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotShippable)
		}
		orders = append(orders, order)
	}

	// The planner scales time arrays itself: carrier speed plus one variance
	// factor per cluster.
	routes, err := s.planner.PlanRoutes(ctx, orders)
	if err != nil {
		return nil, err
	}

	for _, order := range orders {
		info, ok := routes[order.ID]
		if !ok {
			return nil, fmt.Errorf("order %s: no planned route", order.ID)
		}
		route := &domain.Route{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			Points:    info.Points,
			TimeArray: info.TimeArray,
			CreatedAt: s.now(),
		}
		if err := s.persistShipment(ctx, order, route); err != nil {
			return nil, fmt.Errorf("order %s: %w", order.ID, err)
		}
		s.afterShip(ctx, order)
	}
	return orders, nil
}

// persistShipment writes the route and the order's transition to SHIPPING in
// one transaction.
func (s *ShippingService) persistShipment(ctx context.Context, order *domain.Order, route *domain.Route) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txRouteRepo := postgres.NewRouteRepositoryWithTx(tx)
	txOrderRepo := postgres.NewOrderRepositoryWithTx(tx)
	txTimelineRepo := postgres.NewTimelineRepositoryWithTx(tx)

	if err = txRouteRepo.Create(ctx, route); err != nil {
		return err
	}

	start := route.Points[0]
	order.Status = domain.OrderStatusShipping
	order.RouteID = route.ID
	order.CurrentLocation = &start
	order.EstimatedTime = route.TimeArray[len(route.TimeArray)-1]
	// The shipping instant is the simulation time origin; restart recovery
	// measures elapsed progress from it.
	order.CreatedAt = route.CreatedAt

	if err = txOrderRepo.Update(ctx, order); err != nil {
		return err
	}

	if err = txTimelineRepo.Append(ctx, &domain.TimelineEntry{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		Status:      domain.TimelineShipped,
		Description: "Package shipped via " + order.Logistics,
		CreatedAt:   route.CreatedAt,
	}); err != nil {
		return err
	}

	return tx.Commit()
}

// afterShip runs the non-transactional side effects of a shipment.
func (s *ShippingService) afterShip(ctx context.Context, order *domain.Order) {
	if err := s.events.PublishStatus(ctx, broadcast.StatusUpdate{
		OrderNo: order.OrderNo,
		Status:  string(domain.OrderStatusShipping),
		Message: "Package shipped via " + order.Logistics,
	}); err != nil {
		log.Printf("shipping: publish status order=%s: %v", order.OrderNo, err)
	}

	if err := s.locations.UpdateLocation(ctx, order.ID, order.Origin.Lng, order.Origin.Lat); err != nil {
		log.Printf("shipping: mirror location order=%s: %v", order.ID, err)
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyOrderShipped(ctx, order)
	}

	s.simulator.StartTimer(ctx, order.ID)
}

// Cancel stops an order's simulation and marks it CANCELLED. Only PENDING
// and SHIPPING orders can be cancelled.
func (s *ShippingService) Cancel(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	acquired, err := s.locks.AcquireOrderLock(ctx, orderID, orderLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrOrderLocked
	}
	defer func() {
		if err := s.locks.ReleaseOrderLock(ctx, orderID); err != nil {
			log.Printf("shipping: release lock order=%s: %v", orderID, err)
		}
	}()

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusShipping {
		return nil, ErrOrderNotCancellable
	}

	// Stop the timer before the state transition so no step callback races
	// the cancellation write.
	s.simulator.StopTimer(orderID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txOrderRepo := postgres.NewOrderRepositoryWithTx(tx)
	txTimelineRepo := postgres.NewTimelineRepositoryWithTx(tx)

	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = s.now()
	order.CancelReason = reason

	if err = txOrderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	if err = txTimelineRepo.Append(ctx, &domain.TimelineEntry{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		Status:      domain.TimelineCancelled,
		Description: "Order cancelled: " + reason,
		CreatedAt:   order.CancelledAt,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	if pubErr := s.events.PublishStatus(ctx, broadcast.StatusUpdate{
		OrderNo: order.OrderNo,
		Status:  string(domain.OrderStatusCancelled),
		Message: reason,
	}); pubErr != nil {
		log.Printf("shipping: publish status order=%s: %v", order.OrderNo, pubErr)
	}

	if remErr := s.locations.RemoveLocation(ctx, order.ID); remErr != nil {
		log.Printf("shipping: remove location order=%s: %v", order.ID, remErr)
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyOrderCancelled(ctx, order)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTrack(ctx, order.ID)
	}

	return order, nil
}

// TrackInfo is a point-in-time tracking snapshot for an order.
type TrackInfo struct {
	OrderNo         string           `json:"order_no"`
	Status          string           `json:"status"`
	CurrentLocation *domain.GeoPoint `json:"current_location,omitempty"`
	Progress        float64          `json:"progress"` // 0..100
	CurrentStep     int              `json:"current_step"`
	TotalSteps      int              `json:"total_steps"`
}

// Track returns an order's current tracking snapshot, served from cache when
// fresh.
func (s *ShippingService) Track(ctx context.Context, orderID string) (*TrackInfo, error) {
	if orderID == "" {
		return nil, ErrInvalidOrderID
	}

	if s.cache != nil {
		cached, err := s.cache.GetTrack(ctx, orderID)
		if err != nil {
			log.Printf("shipping: track cache read order=%s: %v", orderID, err)
		} else if cached != nil {
			info := &TrackInfo{
				OrderNo:     cached.OrderNo,
				Status:      cached.Status,
				Progress:    cached.Progress,
				CurrentStep: cached.CurrentStep,
				TotalSteps:  cached.TotalSteps,
			}
			if cached.Lng != 0 || cached.Lat != 0 {
				info.CurrentLocation = &domain.GeoPoint{Lng: cached.Lng, Lat: cached.Lat}
			}
			return info, nil
		}
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	info := &TrackInfo{
		OrderNo:         order.OrderNo,
		Status:          string(order.Status),
		CurrentLocation: order.CurrentLocation,
	}

	if order.RouteID != "" {
		route, err := s.routeRepo.GetByOrderID(ctx, orderID)
		if err == nil {
			info.CurrentStep = route.CurrentStep
			info.TotalSteps = route.TotalSteps()
			info.Progress = route.Progress(route.CurrentStep) * 100
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	// Prefer the geo index position: it is written on every step, while the
	// database row may lag a failed write.
	if loc, err := s.locations.GetLocation(ctx, orderID); err == nil && loc != nil {
		info.CurrentLocation = &domain.GeoPoint{Lng: loc.Lng, Lat: loc.Lat}
	}

	if s.cache != nil {
		cached := &redis.CachedTrack{
			OrderNo:     info.OrderNo,
			Status:      info.Status,
			Progress:    info.Progress,
			CurrentStep: info.CurrentStep,
			TotalSteps:  info.TotalSteps,
		}
		if info.CurrentLocation != nil {
			cached.Lng = info.CurrentLocation.Lng
			cached.Lat = info.CurrentLocation.Lat
		}
		if err := s.cache.SetTrack(ctx, orderID, cached); err != nil {
			log.Printf("shipping: track cache write order=%s: %v", orderID, err)
		}
	}

	return info, nil
}

// AdvanceOneStep manually advances an order by one step.
func (s *ShippingService) AdvanceOneStep(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ErrInvalidOrderID
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTrack(ctx, orderID)
	}
	return s.simulator.AdvanceOneStep(ctx, orderID)
}

// RecoverAllInTransit rebuilds simulation timers for in-flight orders after a
// process restart.
func (s *ShippingService) RecoverAllInTransit(ctx context.Context) error {
	return s.simulator.RecoverAllInTransit(ctx)
}
