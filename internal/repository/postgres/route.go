package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"shiptrack/internal/domain"
	"shiptrack/internal/repository"
)

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
// Points and time arrays are stored as JSONB.
type RouteRepository struct {
	q Querier
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{q: db}
}

// NewRouteRepositoryWithTx creates a route repository using a transaction.
func NewRouteRepositoryWithTx(tx *sql.Tx) *RouteRepository {
	return &RouteRepository{q: tx}
}

// Create persists a new route.
func (r *RouteRepository) Create(ctx context.Context, route *domain.Route) error {
	query := `
		INSERT INTO routes (id, order_id, points, time_array, current_step, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	points, err := json.Marshal(route.Points)
	if err != nil {
		return fmt.Errorf("marshal points: %w", err)
	}
	timeArray, err := json.Marshal(route.TimeArray)
	if err != nil {
		return fmt.Errorf("marshal time array: %w", err)
	}

	_, err = r.q.ExecContext(ctx, query,
		route.ID, route.OrderID, points, timeArray, route.CurrentStep, route.CreatedAt,
	)
	return err
}

// GetByID retrieves a route by ID.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `SELECT id, order_id, points, time_array, current_step, created_at FROM routes WHERE id = $1`
	return r.scanRoute(r.q.QueryRowContext(ctx, query, id))
}

// GetByOrderID retrieves the route for an order.
func (r *RouteRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Route, error) {
	query := `SELECT id, order_id, points, time_array, current_step, created_at FROM routes WHERE order_id = $1`
	return r.scanRoute(r.q.QueryRowContext(ctx, query, orderID))
}

func (r *RouteRepository) scanRoute(row *sql.Row) (*domain.Route, error) {
	var route domain.Route
	var points, timeArray []byte

	err := row.Scan(&route.ID, &route.OrderID, &points, &timeArray, &route.CurrentStep, &route.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(points, &route.Points); err != nil {
		return nil, fmt.Errorf("unmarshal points: %w", err)
	}
	if err := json.Unmarshal(timeArray, &route.TimeArray); err != nil {
		return nil, fmt.Errorf("unmarshal time array: %w", err)
	}
	return &route, nil
}
