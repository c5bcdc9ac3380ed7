package postgres

import (
	"context"
	"database/sql"

	"shiptrack/internal/domain"
)

// TimelineRepository is a PostgreSQL implementation of repository.TimelineRepository.
type TimelineRepository struct {
	q Querier
}

// NewTimelineRepository creates a new PostgreSQL timeline repository.
func NewTimelineRepository(db *sql.DB) *TimelineRepository {
	return &TimelineRepository{q: db}
}

// NewTimelineRepositoryWithTx creates a timeline repository using a transaction.
func NewTimelineRepositoryWithTx(tx *sql.Tx) *TimelineRepository {
	return &TimelineRepository{q: tx}
}

// Append records a milestone entry.
func (r *TimelineRepository) Append(ctx context.Context, entry *domain.TimelineEntry) error {
	query := `
		INSERT INTO order_timeline (id, order_id, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		entry.ID, entry.OrderID, entry.Status, entry.Description, entry.CreatedAt,
	)
	return err
}

// GetByOrderID retrieves an order's timeline, oldest first.
func (r *TimelineRepository) GetByOrderID(ctx context.Context, orderID string) ([]*domain.TimelineEntry, error) {
	query := `
		SELECT id, order_id, status, description, created_at
		FROM order_timeline
		WHERE order_id = $1
		ORDER BY created_at
	`
	rows, err := r.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.TimelineEntry
	for rows.Next() {
		var entry domain.TimelineEntry
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.Description, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// HasStatus reports whether a milestone was already recorded for an order.
func (r *TimelineRepository) HasStatus(ctx context.Context, orderID, status string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM order_timeline WHERE order_id = $1 AND status = $2)`
	var exists bool
	err := r.q.QueryRowContext(ctx, query, orderID, status).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	return exists, nil
}
