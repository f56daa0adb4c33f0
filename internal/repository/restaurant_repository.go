package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// RestaurantRepository is typed CRUD plus the get-or-create upsert over
// the restaurants table.
type RestaurantRepository struct {
	q      Querier
	logger *zap.Logger
}

// NewRestaurantRepository creates a new restaurant repository.
func NewRestaurantRepository(q Querier, logger *zap.Logger) *RestaurantRepository {
	return &RestaurantRepository{q: q, logger: logger}
}

// GetByID returns the name of the restaurant with the given id and whether
// it exists; a missing row yields ("", false, nil).
func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (string, bool, error) {
	var name string
	err := r.q.QueryRowContext(ctx, `SELECT name FROM restaurants WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get restaurant: %w", err)
	}
	return name, true, nil
}

// GetOrCreate ensures a restaurant row exists for id, inserting one with
// name=id when absent. The insert is wrapped in a SAVEPOINT so a
// concurrent insert of the same id only unwinds the savepoint, not the
// caller's outer transaction — the Go analogue of SQLAlchemy's
// session.begin_nested() used by the original implementation.
func (r *RestaurantRepository) GetOrCreate(ctx context.Context, id string) (created bool, err error) {
	if _, ok, err := r.GetByID(ctx, id); err != nil {
		return false, err
	} else if ok {
		return false, nil
	}

	if _, err := r.q.ExecContext(ctx, `SAVEPOINT restaurant_upsert`); err != nil {
		return false, fmt.Errorf("savepoint restaurant_upsert: %w", err)
	}

	_, insertErr := r.q.ExecContext(ctx, `
		INSERT INTO restaurants (id, name)
		VALUES ($1, $1)
	`, id)

	if insertErr != nil {
		if _, rbErr := r.q.ExecContext(ctx, `ROLLBACK TO SAVEPOINT restaurant_upsert`); rbErr != nil {
			return false, fmt.Errorf("rollback to savepoint after %v: %w", insertErr, rbErr)
		}
		r.logger.Info("restaurant already exists (race handled)", zap.String("restaurant_id", id))
		return false, nil
	}

	if _, err := r.q.ExecContext(ctx, `RELEASE SAVEPOINT restaurant_upsert`); err != nil {
		return false, fmt.Errorf("release savepoint restaurant_upsert: %w", err)
	}

	r.logger.Info("created new restaurant", zap.String("restaurant_id", id))
	return true, nil
}

// ListActiveIDs returns the ids of every active restaurant, for the batch
// payout generator to iterate over.
func (r *RestaurantRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM restaurants WHERE is_active = true ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active restaurants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan restaurant id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
