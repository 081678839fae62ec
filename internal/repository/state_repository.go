package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigmadocs/ged-api/internal/models"
)

// StateRepository provides database access for the states reference table.
type StateRepository struct {
	db *sqlx.DB
}

// NewStateRepository creates a new instance of StateRepository.
func NewStateRepository(db *sqlx.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Count returns the number of state rows.
func (r *StateRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM states`); err != nil {
		return 0, fmt.Errorf("count states: %w", err)
	}
	return total, nil
}

// List returns all states ordered by code.
func (r *StateRepository) List(ctx context.Context) ([]models.State, error) {
	const query = `SELECT id, code, name FROM states ORDER BY code ASC`
	var states []models.State
	if err := r.db.SelectContext(ctx, &states, query); err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	return states, nil
}

// BulkInsert seeds the reference table.
func (r *StateRepository) BulkInsert(ctx context.Context, states []models.State) error {
	const query = `INSERT INTO states (id, code, name) VALUES (:id, :code, :name) ON CONFLICT (code) DO NOTHING`
	for i := range states {
		state := states[i]
		if state.ID == "" {
			state.ID = uuid.NewString()
		}
		if _, err := r.db.NamedExecContext(ctx, query, state); err != nil {
			return fmt.Errorf("insert state %s: %w", state.Code, err)
		}
	}
	return nil
}
