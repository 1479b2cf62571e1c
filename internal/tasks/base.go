package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"iark_app/internal/models"
)

// BuildScheduledTask is a helper to build ScheduledTask records generically
func BuildScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var mapArgs map[string]interface{}
	if err := json.Unmarshal(argsBytes, &mapArgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}

	return &models.ScheduledTask{
		TaskName:          taskName,
		Arguments:         mapArgs,
		Due:               due,
		RecurringInterval: recurringInterval,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          taskType,
		MaxAttempt:        maxAttempt,
	}, nil
}

// decodeArgs round-trips the stored argument map into a typed struct
func decodeArgs(task models.ScheduledTask, out interface{}) error {
	argsBytes, err := json.Marshal(task.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal args: %w", err)
	}
	if err := json.Unmarshal(argsBytes, out); err != nil {
		return fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return nil
}

// TaskCreator inserts scheduled tasks
type TaskCreator interface {
	CreateTask(ctx context.Context, task *models.ScheduledTask) error
}

// Scheduler queues tasks from request handlers
type Scheduler struct {
	Store TaskCreator
	Now   func() time.Time
}

// ScheduleReceipt queues the receipt notification of a paid donation
func (s *Scheduler) ScheduleReceipt(ctx context.Context, orderID string) error {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	task, err := SendDonationReceiptTask.CreateTask(ReceiptArgs{OrderID: orderID}, now)
	if err != nil {
		return err
	}
	return s.Store.CreateTask(ctx, task)
}
