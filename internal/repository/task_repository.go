package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sigmadocs/ged-api/internal/models"
)

// TaskRepository provides database access for scheduled tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new instance of TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns all scheduled tasks ordered by name.
func (r *TaskRepository) List(ctx context.Context) ([]models.ScheduledTask, error) {
	const query = `SELECT id, kind, name, enabled, interval_seconds, last_run_at, last_status, last_error, next_due_at, created_at, updated_at FROM scheduled_tasks ORDER BY name ASC`
	var tasks []models.ScheduledTask
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// FindByID returns a task by identifier.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.ScheduledTask, error) {
	const query = `SELECT id, kind, name, enabled, interval_seconds, last_run_at, last_status, last_error, next_due_at, created_at, updated_at FROM scheduled_tasks WHERE id = $1 LIMIT 1`
	var task models.ScheduledTask
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find task by id: %w", err)
	}
	return &task, nil
}

// ListDue returns enabled tasks whose next_due_at has passed (or is unset).
func (r *TaskRepository) ListDue(ctx context.Context, now time.Time) ([]models.ScheduledTask, error) {
	const query = `SELECT id, kind, name, enabled, interval_seconds, last_run_at, last_status, last_error, next_due_at, created_at, updated_at FROM scheduled_tasks WHERE enabled = TRUE AND (next_due_at IS NULL OR next_due_at <= $1) ORDER BY name ASC`
	var tasks []models.ScheduledTask
	if err := r.db.SelectContext(ctx, &tasks, query, now); err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}

// Update persists mutable scheduling fields.
func (r *TaskRepository) Update(ctx context.Context, task *models.ScheduledTask) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scheduled_tasks SET name = :name, enabled = :enabled, interval_seconds = :interval_seconds, next_due_at = :next_due_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// RecordRun stores the outcome of one execution and schedules the next.
func (r *TaskRepository) RecordRun(ctx context.Context, id string, ranAt time.Time, status string, errMsg *string, nextDue time.Time) error {
	const query = `UPDATE scheduled_tasks SET last_run_at = $2, last_status = $3, last_error = $4, next_due_at = $5, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ranAt, status, errMsg, nextDue); err != nil {
		return fmt.Errorf("record task run: %w", err)
	}
	return nil
}

// EnsureDefaults inserts the built-in task set when missing.
func (r *TaskRepository) EnsureDefaults(ctx context.Context, defaults []models.ScheduledTask) error {
	const query = `INSERT INTO scheduled_tasks (id, kind, name, enabled, interval_seconds, created_at, updated_at) VALUES (:id, :kind, :name, :enabled, :interval_seconds, :created_at, :updated_at) ON CONFLICT (kind) DO NOTHING`
	for i := range defaults {
		task := defaults[i]
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		task.UpdatedAt = now
		if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
			return fmt.Errorf("seed task %s: %w", task.Kind, err)
		}
	}
	return nil
}
