package store

import (
	"context"
	"time"

	"iark_app/internal/models"
)

// ListDueTasks returns active tasks whose due time has passed
func (s *Store) ListDueTasks(ctx context.Context, now time.Time) ([]models.ScheduledTask, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.ScheduledTask
	err = db.Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, now).Order("due asc").Find(&out).Error
	return out, err
}

// CreateTask inserts a scheduled task
func (s *Store) CreateTask(ctx context.Context, task *models.ScheduledTask) error {
	return Create(ctx, s, task)
}

// UpdateTask applies column updates to a scheduled task
func (s *Store) UpdateTask(ctx context.Context, id uint, updates map[string]interface{}) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Model(&models.ScheduledTask{}).Where("id = ?", id).Updates(updates).Error
}

// RecordTaskRun stores one execution of a scheduled task
func (s *Store) RecordTaskRun(ctx context.Context, h *models.ScheduledTaskHistory) error {
	return Create(ctx, s, h)
}

// HasActiveTask reports whether an active task with the name already exists
func (s *Store) HasActiveTask(ctx context.Context, taskName string) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	var n int64
	err = db.Model(&models.ScheduledTask{}).
		Where("task_name = ? AND status = ?", taskName, models.ScheduledTaskStatusActive).
		Count(&n).Error
	return n > 0, err
}
