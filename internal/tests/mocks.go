package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"shiptrack/internal/broadcast"
	"shiptrack/internal/domain"
	redisstore "shiptrack/internal/redis"
	"shiptrack/internal/repository"
	"shiptrack/internal/routing"
)

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	routes *MockRouteRepository // step writes mirror into the route, like the CTE does

	// Counters for verification
	CreateCallCount          int32
	UpdateCallCount          int32
	AdvanceProgressCallCount int32
	MarkDeliveredCallCount   int32

	// Error injection
	CreateError          error
	UpdateError          error
	AdvanceProgressError error
	MarkDeliveredError   error
}

// NewMockOrderRepository creates a new mock order repository. The route
// repository may be nil when step mirroring is not under test.
func NewMockOrderRepository(routes *MockRouteRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
		routes: routes,
	}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *order
	return &copy, nil
}

func (m *MockOrderRepository) GetAll(ctx context.Context) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		copy := *o
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockOrderRepository) GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Order, 0)
	for _, o := range m.orders {
		if o.Status == status {
			copy := *o
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	m.orders[order.ID] = order
	return nil
}

func (m *MockOrderRepository) AdvanceProgress(ctx context.Context, orderID string, loc domain.GeoPoint, step int) error {
	atomic.AddInt32(&m.AdvanceProgressCallCount, 1)
	if m.AdvanceProgressError != nil {
		return m.AdvanceProgressError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	point := loc
	order.CurrentLocation = &point
	if m.routes != nil {
		m.routes.setStep(orderID, step)
	}
	return nil
}

func (m *MockOrderRepository) MarkDelivered(ctx context.Context, orderID string, loc domain.GeoPoint, step int, deliveredAt time.Time) error {
	atomic.AddInt32(&m.MarkDeliveredCallCount, 1)
	if m.MarkDeliveredError != nil {
		return m.MarkDeliveredError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	point := loc
	order.Status = domain.OrderStatusDelivered
	order.CurrentLocation = &point
	order.ActualTime = deliveredAt
	if m.routes != nil {
		m.routes.setStep(orderID, step)
	}
	return nil
}

// GetOrder returns the order by ID (for test assertions).
func (m *MockOrderRepository) GetOrder(id string) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id]
}

// ──────────────────────────────────────────────
// MOCK ROUTE REPOSITORY
// ──────────────────────────────────────────────

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route // keyed by route ID

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError  error
	GetByIDError error
}

// NewMockRouteRepository creates a new mock route repository.
func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{
		routes: make(map[string]*domain.Route),
	}
}

// AddRoute adds a route to the mock repository.
func (m *MockRouteRepository) AddRoute(route *domain.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
}

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
	return nil
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	return &copy, nil
}

func (m *MockRouteRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.routes {
		if r.OrderID == orderID {
			copy := *r
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockRouteRepository) setStep(orderID string, step int) {
	for _, r := range m.routes {
		if r.OrderID == orderID {
			r.CurrentStep = step
			return
		}
	}
}

// GetRoute returns the route by ID (for test assertions).
func (m *MockRouteRepository) GetRoute(id string) *domain.Route {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routes[id]
}

// ──────────────────────────────────────────────
// MOCK TIMELINE REPOSITORY
// ──────────────────────────────────────────────

// MockTimelineRepository is a mock implementation of TimelineRepository.
type MockTimelineRepository struct {
	mu      sync.RWMutex
	entries map[string][]*domain.TimelineEntry // keyed by order ID

	// Counters for verification
	AppendCallCount int32

	// Error injection
	AppendError error
}

// NewMockTimelineRepository creates a new mock timeline repository.
func NewMockTimelineRepository() *MockTimelineRepository {
	return &MockTimelineRepository{
		entries: make(map[string][]*domain.TimelineEntry),
	}
}

func (m *MockTimelineRepository) Append(ctx context.Context, entry *domain.TimelineEntry) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.OrderID] = append(m.entries[entry.OrderID], entry)
	return nil
}

func (m *MockTimelineRepository) GetByOrderID(ctx context.Context, orderID string) ([]*domain.TimelineEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.TimelineEntry(nil), m.entries[orderID]...), nil
}

func (m *MockTimelineRepository) HasStatus(ctx context.Context, orderID, status string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries[orderID] {
		if e.Status == status {
			return true, nil
		}
	}
	return false, nil
}

// Statuses returns the recorded milestone statuses in order (for assertions).
func (m *MockTimelineRepository) Statuses(orderID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	statuses := make([]string, 0, len(m.entries[orderID]))
	for _, e := range m.entries[orderID] {
		statuses = append(statuses, e.Status)
	}
	return statuses
}

// CountStatus returns how many times a status was recorded (for assertions).
func (m *MockTimelineRepository) CountStatus(orderID, status string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.entries[orderID] {
		if e.Status == status {
			n++
		}
	}
	return n
}

// ──────────────────────────────────────────────
// MOCK BROADCASTER
// ──────────────────────────────────────────────

// MockBroadcaster records published events instead of delivering them.
type MockBroadcaster struct {
	mu          sync.RWMutex
	Positions   []broadcast.PositionUpdate
	Statuses    []broadcast.StatusUpdate
	Completions []broadcast.Completion

	// Error injection
	PublishError error
}

// NewMockBroadcaster creates a new mock broadcaster.
func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{}
}

func (m *MockBroadcaster) PublishPosition(ctx context.Context, update broadcast.PositionUpdate) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Positions = append(m.Positions, update)
	return nil
}

func (m *MockBroadcaster) PublishStatus(ctx context.Context, update broadcast.StatusUpdate) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses = append(m.Statuses, update)
	return nil
}

func (m *MockBroadcaster) PublishCompletion(ctx context.Context, update broadcast.Completion) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Completions = append(m.Completions, update)
	return nil
}

// PositionCount returns the number of position events published.
func (m *MockBroadcaster) PositionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Positions)
}

// CompletionCount returns the number of completion events published.
func (m *MockBroadcaster) CompletionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Completions)
}

// LastPosition returns the most recent position event, or nil.
func (m *MockBroadcaster) LastPosition() *broadcast.PositionUpdate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Positions) == 0 {
		return nil
	}
	copy := m.Positions[len(m.Positions)-1]
	return &copy
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory stand-in for the Redis geo index.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]redisstore.OrderLocation

	// Counters for verification
	UpdateCallCount int32
	RemoveCallCount int32

	// Error injection
	UpdateError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]redisstore.OrderLocation),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, orderID string, lng, lat float64) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[orderID] = redisstore.OrderLocation{OrderID: orderID, Lng: lng, Lat: lat}
	return nil
}

func (m *MockLocationStore) GetLocation(ctx context.Context, orderID string) (*redisstore.OrderLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[orderID]
	if !ok {
		return nil, nil
	}
	copy := loc
	return &copy, nil
}

func (m *MockLocationStore) FindNearbyOrders(ctx context.Context, lng, lat, radiusKm float64) ([]redisstore.OrderLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]redisstore.OrderLocation, 0, len(m.locations))
	for _, loc := range m.locations {
		result = append(result, loc)
	}
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, orderID string) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, orderID)
	return nil
}

// HasLocation reports whether the order is present in the index.
func (m *MockLocationStore) HasLocation(orderID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locations[orderID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory stand-in for the Redis lock store.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireOrderLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[orderID] {
		return false, nil
	}
	m.locks[orderID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseOrderLock(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, orderID)
	return nil
}

// ──────────────────────────────────────────────
// STUB ROUTE PROVIDER
// ──────────────────────────────────────────────

// StubProvider returns a fixed route, optionally failing the first N calls.
type StubProvider struct {
	Points    []domain.GeoPoint
	TimeArray []float64
	Err       error
	FailFirst int32

	calls int32
}

func (p *StubProvider) FetchRoute(ctx context.Context, origin, destination domain.GeoPoint) ([]domain.GeoPoint, []float64, error) {
	n := atomic.AddInt32(&p.calls, 1)
	if p.Err != nil && (p.FailFirst == 0 || n <= p.FailFirst) {
		return nil, nil, p.Err
	}
	points := append([]domain.GeoPoint(nil), p.Points...)
	times := append([]float64(nil), p.TimeArray...)
	return points, times, nil
}

// Calls returns how many times the provider was invoked.
func (p *StubProvider) Calls() int32 {
	return atomic.LoadInt32(&p.calls)
}

// Interface conformance checks.
var (
	_ repository.OrderRepository        = (*MockOrderRepository)(nil)
	_ repository.RouteRepository        = (*MockRouteRepository)(nil)
	_ repository.TimelineRepository     = (*MockTimelineRepository)(nil)
	_ broadcast.Broadcaster             = (*MockBroadcaster)(nil)
	_ redisstore.LocationStoreInterface = (*MockLocationStore)(nil)
	_ redisstore.LockStoreInterface     = (*MockLockStore)(nil)
	_ routing.Provider                  = (*StubProvider)(nil)
)
