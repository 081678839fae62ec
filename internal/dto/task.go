package dto

// UpdateTaskRequest carries mutable scheduling fields.
type UpdateTaskRequest struct {
	Name            *string `json:"name"`
	Enabled         *bool   `json:"enabled"`
	IntervalSeconds *int64  `json:"interval_seconds" validate:"omitempty,min=60"`
}

// RunTasksRequest dispatches task execution: action "process" runs every due
// task, action "run" executes the task named by ID.
type RunTasksRequest struct {
	Action string `json:"action" validate:"required"`
	ID     string `json:"id"`
}
