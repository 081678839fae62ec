package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigmadocs/ged-api/internal/models"
)

// AlertRepository provides database access for emitted alerts.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository creates a new instance of AlertRepository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts an alert row.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO alerts (id, kind, document_id, user_id, message, emailed, created_at) VALUES (:id, :kind, :document_id, :user_id, :message, :emailed, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// Exists reports whether an alert of the given kind was already emitted for
// the document. Keeps processing idempotent across repeated cron runs.
func (r *AlertRepository) Exists(ctx context.Context, documentID string, kind models.AlertKind) (bool, error) {
	const query = `SELECT COUNT(*) FROM alerts WHERE document_id = $1 AND kind = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, documentID, kind); err != nil {
		return false, fmt.Errorf("check alert exists: %w", err)
	}
	return total > 0, nil
}

// MarkEmailed flags an alert as delivered.
func (r *AlertRepository) MarkEmailed(ctx context.Context, id string) error {
	const query = `UPDATE alerts SET emailed = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark alert emailed: %w", err)
	}
	return nil
}
