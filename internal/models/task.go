package models

import "time"

// TaskKind is the closed set of scheduled task types the runner understands.
type TaskKind string

const (
	TaskKindBackup          TaskKind = "BACKUP"
	TaskKindAlerts          TaskKind = "ALERTS"
	TaskKindCleanupSessions TaskKind = "CLEANUP_SESSIONS"
	TaskKindCleanupLocks    TaskKind = "CLEANUP_LOCKS"
)

// ValidTaskKind reports whether the kind is one the runner can execute.
func ValidTaskKind(kind TaskKind) bool {
	switch kind {
	case TaskKindBackup, TaskKindAlerts, TaskKindCleanupSessions, TaskKindCleanupLocks:
		return true
	}
	return false
}

// ScheduledTask is a recurring maintenance task with a fixed interval.
type ScheduledTask struct {
	ID              string     `db:"id" json:"id"`
	Kind            TaskKind   `db:"kind" json:"kind"`
	Name            string     `db:"name" json:"name"`
	Enabled         bool       `db:"enabled" json:"enabled"`
	IntervalSeconds int64      `db:"interval_seconds" json:"interval_seconds"`
	LastRunAt       *time.Time `db:"last_run_at" json:"last_run_at,omitempty"`
	LastStatus      *string    `db:"last_status" json:"last_status,omitempty"`
	LastError       *string    `db:"last_error" json:"last_error,omitempty"`
	NextDueAt       *time.Time `db:"next_due_at" json:"next_due_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Interval returns the configured run interval as a duration.
func (t *ScheduledTask) Interval() time.Duration {
	return time.Duration(t.IntervalSeconds) * time.Second
}

// Due reports whether the task should run at the given instant.
func (t *ScheduledTask) Due(now time.Time) bool {
	if !t.Enabled {
		return false
	}
	if t.NextDueAt == nil {
		return true
	}
	return !now.Before(*t.NextDueAt)
}

// TaskRunResult summarises one execution.
type TaskRunResult struct {
	TaskID   string   `json:"task_id"`
	Kind     TaskKind `json:"kind"`
	Success  bool     `json:"success"`
	Message  string   `json:"message,omitempty"`
	Affected int      `json:"affected"`
}
