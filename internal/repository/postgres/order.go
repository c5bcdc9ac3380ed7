package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shiptrack/internal/domain"
	"shiptrack/internal/repository"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

const orderColumns = `id, order_no, status, logistics, origin_lng, origin_lat, dest_lng, dest_lat,
	current_lng, current_lat, route_id, created_at, estimated_time, actual_time, cancelled_at, cancel_reason`

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, order_no, status, logistics, origin_lng, origin_lat, dest_lng, dest_lat, current_lng, current_lat, route_id, created_at, estimated_time, actual_time, cancelled_at, cancel_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	var curLng, curLat sql.NullFloat64
	if order.CurrentLocation != nil {
		curLng = sql.NullFloat64{Float64: order.CurrentLocation.Lng, Valid: true}
		curLat = sql.NullFloat64{Float64: order.CurrentLocation.Lat, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		order.ID, order.OrderNo, order.Status, order.Logistics,
		order.Origin.Lng, order.Origin.Lat, order.Destination.Lng, order.Destination.Lat,
		curLng, curLat,
		nullString(order.RouteID), order.CreatedAt, order.EstimatedTime,
		nullTime(order.ActualTime), nullTime(order.CancelledAt), nullString(order.CancelReason),
	)
	return err
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.scanOrder(r.q.QueryRowContext(ctx, query, id))
}

// GetAll retrieves all orders.
func (r *OrderRepository) GetAll(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at`
	return r.queryOrders(ctx, query)
}

// GetByStatus retrieves all orders in the given status.
func (r *OrderRepository) GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at`
	return r.queryOrders(ctx, query, status)
}

// Update updates an existing order.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	// created_at is included because shipping re-stamps it as the simulation
	// time origin.
	query := `
		UPDATE orders
		SET status = $2, logistics = $3, current_lng = $4, current_lat = $5, route_id = $6,
			estimated_time = $7, actual_time = $8, cancelled_at = $9, cancel_reason = $10,
			created_at = $11
		WHERE id = $1
	`

	var curLng, curLat sql.NullFloat64
	if order.CurrentLocation != nil {
		curLng = sql.NullFloat64{Float64: order.CurrentLocation.Lng, Valid: true}
		curLat = sql.NullFloat64{Float64: order.CurrentLocation.Lat, Valid: true}
	}

	res, err := r.q.ExecContext(ctx, query,
		order.ID, order.Status, order.Logistics, curLng, curLat,
		nullString(order.RouteID), order.EstimatedTime,
		nullTime(order.ActualTime), nullTime(order.CancelledAt), nullString(order.CancelReason),
		order.CreatedAt,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// AdvanceProgress records one step transition atomically: a single statement
// updates the order's location and the route's current step together, so
// readers never observe a partial step.
func (r *OrderRepository) AdvanceProgress(ctx context.Context, orderID string, loc domain.GeoPoint, step int) error {
	query := `
		WITH route_step AS (
			UPDATE routes SET current_step = $4 WHERE order_id = $1
		)
		UPDATE orders SET current_lng = $2, current_lat = $3 WHERE id = $1
	`
	res, err := r.q.ExecContext(ctx, query, orderID, loc.Lng, loc.Lat, step)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// MarkDelivered completes an order atomically.
func (r *OrderRepository) MarkDelivered(ctx context.Context, orderID string, loc domain.GeoPoint, step int, deliveredAt time.Time) error {
	query := `
		WITH route_step AS (
			UPDATE routes SET current_step = $4 WHERE order_id = $1
		)
		UPDATE orders
		SET status = $5, current_lng = $2, current_lat = $3, actual_time = $6
		WHERE id = $1
	`
	res, err := r.q.ExecContext(ctx, query, orderID, loc.Lng, loc.Lat, step, domain.OrderStatusDelivered, deliveredAt)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *OrderRepository) scanOrder(row *sql.Row) (*domain.Order, error) {
	order, err := r.scanOrderRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return order, err
}

func (r *OrderRepository) scanOrderRow(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var curLng, curLat sql.NullFloat64
	var routeID, cancelReason sql.NullString
	var actualTime, cancelledAt sql.NullTime

	err := row.Scan(
		&order.ID, &order.OrderNo, &order.Status, &order.Logistics,
		&order.Origin.Lng, &order.Origin.Lat, &order.Destination.Lng, &order.Destination.Lat,
		&curLng, &curLat, &routeID, &order.CreatedAt, &order.EstimatedTime,
		&actualTime, &cancelledAt, &cancelReason,
	)
	if err != nil {
		return nil, err
	}

	if curLng.Valid && curLat.Valid {
		order.CurrentLocation = &domain.GeoPoint{Lng: curLng.Float64, Lat: curLat.Float64}
	}
	order.RouteID = routeID.String
	order.CancelReason = cancelReason.String
	if actualTime.Valid {
		order.ActualTime = actualTime.Time
	}
	if cancelledAt.Valid {
		order.CancelledAt = cancelledAt.Time
	}
	return &order, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
