package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/dto"
	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type taskRepository interface {
	List(ctx context.Context) ([]models.ScheduledTask, error)
	FindByID(ctx context.Context, id string) (*models.ScheduledTask, error)
	ListDue(ctx context.Context, now time.Time) ([]models.ScheduledTask, error)
	Update(ctx context.Context, task *models.ScheduledTask) error
	RecordRun(ctx context.Context, id string, ranAt time.Time, status string, errMsg *string, nextDue time.Time) error
	EnsureDefaults(ctx context.Context, defaults []models.ScheduledTask) error
}

type taskBackupRunner interface {
	Create(ctx context.Context, principal *models.Principal) (*models.Backup, error)
	Prune(ctx context.Context) (int, error)
}

type taskAlertRunner interface {
	Process(ctx context.Context) (*models.AlertProcessResult, error)
}

type taskSessionCleaner interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type taskLockCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

const (
	taskStatusSuccess = "SUCCESS"
	taskStatusError   = "ERROR"
)

// defaultTasks is seeded once at startup; operators then tune intervals and
// enablement through the admin API.
var defaultTasks = []models.ScheduledTask{
	{Kind: models.TaskKindBackup, Name: "Daily backup", Enabled: true, IntervalSeconds: 86400},
	{Kind: models.TaskKindAlerts, Name: "Expiration alerts", Enabled: true, IntervalSeconds: 3600},
	{Kind: models.TaskKindCleanupSessions, Name: "Expired session cleanup", Enabled: true, IntervalSeconds: 3600},
	{Kind: models.TaskKindCleanupLocks, Name: "Expired lock cleanup", Enabled: true, IntervalSeconds: 900},
}

// TaskService manages scheduled maintenance tasks and executes the ones that
// are due. Execution is triggered externally (cron hitting the run endpoint);
// the service itself keeps no timer.
type TaskService struct {
	repo      taskRepository
	backups   taskBackupRunner
	alerts    taskAlertRunner
	sessions  taskSessionCleaner
	locks     taskLockCleaner
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(repo taskRepository, backups taskBackupRunner, alerts taskAlertRunner, sessions taskSessionCleaner, locks taskLockCleaner, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TaskService{repo: repo, backups: backups, alerts: alerts, sessions: sessions, locks: locks, audit: audit, validator: validate, logger: logger}
}

// EnsureDefaults seeds the built-in task set. Called once at startup.
func (s *TaskService) EnsureDefaults(ctx context.Context) error {
	return s.repo.EnsureDefaults(ctx, defaultTasks)
}

// List returns every scheduled task.
func (s *TaskService) List(ctx context.Context) ([]models.ScheduledTask, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// Update applies mutable scheduling fields to a task.
func (s *TaskService) Update(ctx context.Context, principal *models.Principal, id string, req dto.UpdateTaskRequest) (*models.ScheduledTask, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	if req.Name != nil && *req.Name != "" {
		task.Name = *req.Name
	}
	if req.Enabled != nil {
		task.Enabled = *req.Enabled
	}
	if req.IntervalSeconds != nil {
		task.IntervalSeconds = *req.IntervalSeconds
		if task.NextDueAt != nil && task.LastRunAt != nil {
			next := task.LastRunAt.Add(task.Interval())
			task.NextDueAt = &next
		}
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}

	s.audit.Record(models.AuditLog{
		UserID:     &principal.UserID,
		Action:     models.AuditActionTaskUpdate,
		EntityType: "scheduled_task",
		EntityID:   &task.ID,
	})

	return task, nil
}

// ProcessDue runs every enabled task whose next execution time has passed.
// A failing task records its error and does not stop the remaining tasks.
func (s *TaskService) ProcessDue(ctx context.Context, principal *models.Principal) ([]models.TaskRunResult, error) {
	due, err := s.repo.ListDue(ctx, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list due tasks")
	}

	results := make([]models.TaskRunResult, 0, len(due))
	for i := range due {
		results = append(results, s.runTask(ctx, principal, &due[i]))
	}
	return results, nil
}

// Run executes one task immediately, regardless of schedule.
func (s *TaskService) Run(ctx context.Context, principal *models.Principal, id string) (*models.TaskRunResult, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	result := s.runTask(ctx, principal, task)
	return &result, nil
}

func (s *TaskService) runTask(ctx context.Context, principal *models.Principal, task *models.ScheduledTask) models.TaskRunResult {
	ranAt := time.Now().UTC()
	result := models.TaskRunResult{TaskID: task.ID, Kind: task.Kind}

	affected, err := s.execute(ctx, principal, task.Kind)
	status := taskStatusSuccess
	var errMsg *string
	if err != nil {
		status = taskStatusError
		msg := err.Error()
		errMsg = &msg
		result.Message = msg
		s.logger.Warn("scheduled task failed", zap.String("task_id", task.ID), zap.String("kind", string(task.Kind)), zap.Error(err))
	} else {
		result.Success = true
		result.Affected = affected
	}

	nextDue := ranAt.Add(task.Interval())
	if err := s.repo.RecordRun(ctx, task.ID, ranAt, status, errMsg, nextDue); err != nil {
		s.logger.Warn("failed to record task run", zap.String("task_id", task.ID), zap.Error(err))
	}

	var userID *string
	if principal != nil && principal.UserID != "" {
		userID = &principal.UserID
	}
	s.audit.Record(models.AuditLog{
		UserID:     userID,
		Action:     models.AuditActionTaskRun,
		EntityType: "scheduled_task",
		EntityID:   &task.ID,
		Details:    []byte(fmt.Sprintf(`{"kind":%q,"status":%q}`, task.Kind, status)),
	})

	return result
}

func (s *TaskService) execute(ctx context.Context, principal *models.Principal, kind models.TaskKind) (int, error) {
	switch kind {
	case models.TaskKindBackup:
		if _, err := s.backups.Create(ctx, principal); err != nil {
			return 0, err
		}
		pruned, err := s.backups.Prune(ctx)
		if err != nil {
			return 1, err
		}
		return 1 + pruned, nil
	case models.TaskKindAlerts:
		result, err := s.alerts.Process(ctx)
		if err != nil {
			return 0, err
		}
		return result.Created, nil
	case models.TaskKindCleanupSessions:
		affected, err := s.sessions.DeleteExpiredSessions(ctx, time.Now().UTC())
		return int(affected), err
	case models.TaskKindCleanupLocks:
		affected, err := s.locks.CleanupExpired(ctx)
		return int(affected), err
	default:
		return 0, fmt.Errorf("unknown task kind %s", kind)
	}
}
