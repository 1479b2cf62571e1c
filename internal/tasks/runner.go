package tasks

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"iark_app/internal/models"
)

const (
	PollInterval = 5 * time.Minute
	RetryDelay   = 5 * time.Minute
)

// RunnerStore is what the worker needs from the store
type RunnerStore interface {
	ListDueTasks(ctx context.Context, now time.Time) ([]models.ScheduledTask, error)
	UpdateTask(ctx context.Context, id uint, updates map[string]interface{}) error
	RecordTaskRun(ctx context.Context, h *models.ScheduledTaskHistory) error
	HasActiveTask(ctx context.Context, taskName string) (bool, error)
	CreateTask(ctx context.Context, task *models.ScheduledTask) error
}

// Runner executes due scheduled tasks
type Runner struct {
	Store    RunnerStore
	Registry *Registry
	Deps     *Deps
	Now      func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// EnsureRecurring creates the expiry sweep when no active one exists
func (r *Runner) EnsureRecurring(ctx context.Context) error {
	exists, err := r.Store.HasActiveTask(ctx, ExpirePendingDonationsTask.TaskID())
	if err != nil || exists {
		return err
	}
	task, err := ExpirePendingDonationsTask.CreateTask(ExpireArgs{}, r.now())
	if err != nil {
		return err
	}
	log.Println("Scheduling recurring expire_pending_donations task")
	return r.Store.CreateTask(ctx, task)
}

// Run polls for due tasks until ctx is canceled
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	r.ProcessDue(ctx)
	for {
		select {
		case <-ticker.C:
			r.ProcessDue(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ProcessDue runs every task whose due time has passed
func (r *Runner) ProcessDue(ctx context.Context) {
	log.Debug("Checking for pending tasks...")

	pending, err := r.Store.ListDueTasks(ctx, r.now())
	if err != nil {
		log.WithError(err).Error("Error fetching pending tasks")
		return
	}
	if len(pending) == 0 {
		log.Debug("No pending tasks found.")
		return
	}

	log.Printf("Found %d pending tasks.", len(pending))
	for _, task := range pending {
		if ctx.Err() != nil {
			return
		}
		r.Execute(ctx, task)
	}
}

// Execute runs one task, records its history and moves it to its next state.
// A failure keeps the task active and retries it after RetryDelay until MaxAttempt failures.
func (r *Runner) Execute(ctx context.Context, task models.ScheduledTask) {
	logger := log.WithFields(log.Fields{"task": task.TaskName, "task_id": task.ID})
	logger.Info("Processing task")

	if task.Arguments == nil {
		task.Arguments = make(map[string]interface{})
	}
	attempt := task.Attempts + 1
	startTime := r.now()

	handler, found := r.Registry.Get(task.TaskName)
	if !found {
		logger.Warn("Task handler not found, marking as failure")
		r.record(ctx, task, models.ScheduledTaskHistory{
			RunAt:         startTime,
			Status:        "handler_not_found",
			AttemptNumber: attempt,
			Result:        map[string]interface{}{"error": "Handler not found"},
		})
		r.update(ctx, task, map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &startTime,
		})
		return
	}

	began := time.Now()
	result, err := handler(ctx, r.Deps, task)
	runtimeMs := int(time.Since(began).Milliseconds())

	status := "success"
	if err != nil {
		status = "failure"
		if result == nil {
			result = map[string]interface{}{}
		}
		result["error"] = err.Error()
		logger.WithError(err).WithField("attempt", attempt).Error("Task failed")
	} else {
		logger.Info("Task completed successfully")
	}

	r.record(ctx, task, models.ScheduledTaskHistory{
		RunAt:         startTime,
		Runtime:       runtimeMs,
		Status:        status,
		AttemptNumber: attempt,
		Result:        result,
	})

	r.update(ctx, task, nextState(task, err == nil, startTime))
}

// nextState decides the column updates after a run
func nextState(task models.ScheduledTask, success bool, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{"last_run": &now}

	if !success {
		attempts := task.Attempts + 1
		if attempts < task.MaxAttempt {
			updates["attempts"] = attempts
			updates["due"] = now.Add(RetryDelay)
			return updates
		}
		if task.TaskType != models.ScheduledTaskTypeRecurring {
			updates["attempts"] = attempts
			updates["status"] = models.ScheduledTaskStatusFailure
			return updates
		}
		// a recurring task gives up on this occurrence only
	}

	updates["attempts"] = 0
	switch task.TaskType {
	case models.ScheduledTaskTypeRecurring:
		nextDue := task.NextDue(now)
		// a next due not after the current one would run the task repeatedly
		if nextDue.After(task.Due) {
			updates["status"] = models.ScheduledTaskStatusActive
			updates["due"] = nextDue
		} else {
			updates["status"] = models.ScheduledTaskStatusDone
		}
	default:
		updates["status"] = models.ScheduledTaskStatusDone
	}
	return updates
}

func (r *Runner) record(ctx context.Context, task models.ScheduledTask, h models.ScheduledTaskHistory) {
	h.ScheduledTaskID = task.ID
	h.TaskName = task.TaskName
	h.Arguments = task.Arguments
	if err := r.Store.RecordTaskRun(ctx, &h); err != nil {
		log.WithError(err).WithField("task_id", task.ID).Error("Failed to record task history")
	}
}

func (r *Runner) update(ctx context.Context, task models.ScheduledTask, updates map[string]interface{}) {
	if err := r.Store.UpdateTask(ctx, task.ID, updates); err != nil {
		log.WithError(err).WithField("task_id", task.ID).Error("Failed to update task")
	}
}
