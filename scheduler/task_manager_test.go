package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solpolar1990-debug/ozon-price-tracker/models"
)

func waitForCompletion(t *testing.T, tm *TaskManager, taskID string) *models.CheckTask {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		task, ok := tm.GetTask(taskID)
		require.True(t, ok)
		if task.IsCompleted() {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s never completed", taskID)
	return nil
}

func TestTaskManagerRunsSubmittedTask(t *testing.T) {
	var gotUserID atomic.Value
	tm := NewTaskManager(func(ctx context.Context, userID string) models.UserCheckResult {
		gotUserID.Store(userID)
		return models.UserCheckResult{Checked: 3, Updated: 1, Errors: []string{}}
	}, 2, time.Minute)
	defer tm.Stop()

	task := tm.SubmitTask("u1")
	assert.Equal(t, "u1", task.UserID)

	done := waitForCompletion(t, tm, task.ID)
	assert.Equal(t, models.TaskStatusCompleted, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, 3, done.Result.Checked)
	assert.Equal(t, 1, done.Result.Updated)
	assert.Equal(t, "u1", gotUserID.Load())
}

func TestTaskManagerGetUnknownTask(t *testing.T) {
	tm := NewTaskManager(func(ctx context.Context, userID string) models.UserCheckResult {
		return models.UserCheckResult{}
	}, 1, time.Minute)
	defer tm.Stop()

	_, ok := tm.GetTask("task_missing")
	assert.False(t, ok)
}

func TestTaskManagerStats(t *testing.T) {
	block := make(chan struct{})
	tm := NewTaskManager(func(ctx context.Context, userID string) models.UserCheckResult {
		<-block
		return models.UserCheckResult{}
	}, 1, time.Minute)
	defer tm.Stop()

	task := tm.SubmitTask("u1")

	stats := tm.Stats()
	assert.Equal(t, 1, stats["total_tasks"])
	assert.Equal(t, 1, stats["max_workers"])

	close(block)
	waitForCompletion(t, tm, task.ID)
}

func TestTaskManagerCleanupKeepsActiveTasks(t *testing.T) {
	tm := NewTaskManager(func(ctx context.Context, userID string) models.UserCheckResult {
		return models.UserCheckResult{}
	}, 1, time.Minute)
	defer tm.Stop()

	task := tm.SubmitTask("u1")
	waitForCompletion(t, tm, task.ID)

	// Fresh completed tasks survive, aged ones are dropped
	tm.cleanupOldTasks(time.Hour)
	_, ok := tm.GetTask(task.ID)
	assert.True(t, ok)

	tm.cleanupOldTasks(0)
	_, ok = tm.GetTask(task.ID)
	assert.False(t, ok)
}
