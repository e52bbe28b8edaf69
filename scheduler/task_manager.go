package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/solpolar1990-debug/ozon-price-tracker/models"
)

// UserCheckFunc runs a user-scoped price check
type UserCheckFunc func(ctx context.Context, userID string) models.UserCheckResult

// TaskManager runs user-scoped price checks asynchronously so the HTTP
// surface can return immediately and let clients poll for the outcome.
type TaskManager struct {
	tasks      map[string]*models.CheckTask
	taskQueue  chan *models.CheckTask
	workers    int
	maxWorkers int
	checkFunc  UserCheckFunc
	runTimeout time.Duration
	mutex      sync.RWMutex
	stopChan   chan struct{}
}

// NewTaskManager creates a task manager and starts its dispatch loop
func NewTaskManager(checkFunc UserCheckFunc, maxWorkers int, runTimeout time.Duration) *TaskManager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	tm := &TaskManager{
		tasks:      make(map[string]*models.CheckTask),
		taskQueue:  make(chan *models.CheckTask, 100),
		maxWorkers: maxWorkers,
		checkFunc:  checkFunc,
		runTimeout: runTimeout,
		stopChan:   make(chan struct{}),
	}

	go tm.processTasks()
	log.Printf("🚀 Task manager started with %d max workers", maxWorkers)
	return tm
}

// SubmitTask queues an async price check for one user
func (tm *TaskManager) SubmitTask(userID string) *models.CheckTask {
	task := models.NewCheckTask(userID)

	tm.mutex.Lock()
	tm.tasks[task.ID] = task
	tm.mutex.Unlock()

	select {
	case tm.taskQueue <- task:
		log.Printf("📝 Task %s submitted for user %s", task.ID, userID)
	default:
		task.Fail("Task queue is full")
		log.Printf("❌ Failed to submit task %s - queue full", task.ID)
	}

	return task
}

// GetTask returns a task by ID
func (tm *TaskManager) GetTask(taskID string) (*models.CheckTask, bool) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	task, exists := tm.tasks[taskID]
	return task, exists
}

// Stats returns task manager counters
func (tm *TaskManager) Stats() map[string]interface{} {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	statusCounts := make(map[string]int)
	for _, task := range tm.tasks {
		statusCounts[string(task.Status)]++
	}

	return map[string]interface{}{
		"total_tasks":     len(tm.tasks),
		"max_workers":     tm.maxWorkers,
		"queue_size":      len(tm.taskQueue),
		"tasks_by_status": statusCounts,
	}
}

// cleanupOldTasks removes completed tasks older than maxAge
func (tm *TaskManager) cleanupOldTasks(maxAge time.Duration) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for taskID, task := range tm.tasks {
		if task.IsCompleted() && task.CreatedAt.Before(cutoff) {
			delete(tm.tasks, taskID)
		}
	}
}

// processTasks dispatches queued tasks to workers
func (tm *TaskManager) processTasks() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	sem := make(chan struct{}, tm.maxWorkers)

	for {
		select {
		case task := <-tm.taskQueue:
			sem <- struct{}{}
			go func(task *models.CheckTask) {
				defer func() { <-sem }()
				tm.runTask(task)
			}(task)

		case <-ticker.C:
			tm.cleanupOldTasks(time.Hour)

		case <-tm.stopChan:
			log.Println("🛑 Task manager stopped")
			return
		}
	}
}

// runTask executes one queued user check
func (tm *TaskManager) runTask(task *models.CheckTask) {
	task.Start()

	ctx, cancel := context.WithTimeout(context.Background(), tm.runTimeout)
	defer cancel()

	result := tm.checkFunc(ctx, task.UserID)
	task.Complete(&result)

	log.Printf("✅ Task %s completed in %v (checked %d, updated %d, %d errors)",
		task.ID, task.Duration(), result.Checked, result.Updated, len(result.Errors))
}

// Stop stops the task manager
func (tm *TaskManager) Stop() {
	close(tm.stopChan)
}
