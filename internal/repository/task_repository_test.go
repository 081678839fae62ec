package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmadocs/ged-api/internal/models"
)

func TestListDue(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "kind", "name", "enabled", "interval_seconds", "last_run_at", "last_status", "last_error", "next_due_at", "created_at", "updated_at"}).
		AddRow("t1", string(models.TaskKindBackup), "Daily backup", true, int64(86400), nil, nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE enabled = TRUE AND (next_due_at IS NULL OR next_due_at <= $1)")).
		WithArgs(now).
		WillReturnRows(rows)

	tasks, err := repo.ListDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskKindBackup, tasks[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRun(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	ranAt := time.Now()
	nextDue := ranAt.Add(24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_tasks SET last_run_at = $2, last_status = $3, last_error = $4, next_due_at = $5, updated_at = $2 WHERE id = $1")).
		WithArgs("t1", ranAt, "SUCCESS", nil, nextDue).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordRun(context.Background(), "t1", ranAt, "SUCCESS", nil, nextDue)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectExec("INSERT INTO scheduled_tasks").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO scheduled_tasks").WillReturnResult(sqlmock.NewResult(1, 0))

	defaults := []models.ScheduledTask{
		{Kind: models.TaskKindBackup, Name: "Daily backup", Enabled: true, IntervalSeconds: 86400},
		{Kind: models.TaskKindAlerts, Name: "Expiration alerts", Enabled: true, IntervalSeconds: 3600},
	}
	err := repo.EnsureDefaults(context.Background(), defaults)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
