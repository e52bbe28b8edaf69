package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of an async check task
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// CheckTask represents an async user-scoped price check
type CheckTask struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Status      TaskStatus       `json:"status"`
	Message     string           `json:"message"`
	Result      *UserCheckResult `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// NewCheckTask creates a queued check task for one user
func NewCheckTask(userID string) *CheckTask {
	return &CheckTask{
		ID:        "task_" + uuid.NewString(),
		UserID:    userID,
		Status:    TaskStatusQueued,
		Message:   "Task queued for processing",
		CreatedAt: time.Now(),
	}
}

// Start marks the task as processing
func (t *CheckTask) Start() {
	t.Status = TaskStatusProcessing
	t.Message = "Checking prices..."
	now := time.Now()
	t.StartedAt = &now
}

// Complete marks the task as completed with its run summary
func (t *CheckTask) Complete(result *UserCheckResult) {
	t.Status = TaskStatusCompleted
	t.Message = "Price check completed"
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
}

// Fail marks the task as failed
func (t *CheckTask) Fail(errMsg string) {
	t.Status = TaskStatusFailed
	t.Message = "Price check failed"
	t.Error = errMsg
	now := time.Now()
	t.CompletedAt = &now
}

// IsCompleted returns true if the task is in a final state
func (t *CheckTask) IsCompleted() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// IsActive returns true if the task is still queued or running
func (t *CheckTask) IsActive() bool {
	return t.Status == TaskStatusQueued || t.Status == TaskStatusProcessing
}

// Duration returns how long the task has been running
func (t *CheckTask) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	endTime := time.Now()
	if t.CompletedAt != nil {
		endTime = *t.CompletedAt
	}
	return endTime.Sub(*t.StartedAt)
}
