package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lifeboard/internal/apperr"
	"lifeboard/internal/model"
)

// TaskRepository handles CRUD for tasks and their dependency edges.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListByUser returns all live tasks for the user. Sorting and fine-grained
// filtering happen in the priority engine, not in SQL, because scores are
// derived at read time.
func (r *TaskRepository) ListByUser(ctx context.Context, userID int64) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.Newf(apperr.KindNotFound, "task %d not found", taskID)
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// SetCompleted writes the completion timestamp (nil clears it).
func (r *TaskRepository) SetCompleted(ctx context.Context, task *model.Task, completedAt *time.Time) error {
	task.CompletedAt = completedAt
	if err := r.db.WithContext(ctx).Model(task).Update("completed_at", completedAt).Error; err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	return nil
}

// Delete moves a task to the trash (soft delete).
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID int64) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.KindNotFound, "task %d not found", taskID)
	}
	return nil
}

// ListTrash returns soft-deleted tasks, newest deletion first.
func (r *TaskRepository) ListTrash(ctx context.Context, userID int64) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Order("deleted_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Restore brings a trashed task back.
func (r *TaskRepository) Restore(ctx context.Context, userID, taskID int64) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&model.Task{}).
		Where("user_id = ? AND id = ? AND deleted_at IS NOT NULL", userID, taskID).
		Update("deleted_at", nil)
	if res.Error != nil {
		return fmt.Errorf("restore task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.KindNotFound, "task %d not in trash", taskID)
	}
	return nil
}

// ListDependencies returns every dependency edge between the user's tasks.
func (r *TaskRepository) ListDependencies(ctx context.Context, userID int64) ([]model.TaskDependency, error) {
	var edges []model.TaskDependency
	if err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = task_dependencies.task_id").
		Where("tasks.user_id = ?", userID).
		Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	return edges, nil
}

func (r *TaskRepository) CreateDependency(ctx context.Context, edge *model.TaskDependency) error {
	if err := r.db.WithContext(ctx).Create(edge).Error; err != nil {
		return fmt.Errorf("create dependency: %w", err)
	}
	return nil
}

// DeleteDependency removes the edge between two tasks in either direction.
// Callers do not always know which way the edge runs.
func (r *TaskRepository) DeleteDependency(ctx context.Context, idA, idB int64) error {
	res := r.db.WithContext(ctx).
		Where("(task_id = ? AND prerequisite_id = ?) OR (task_id = ? AND prerequisite_id = ?)", idA, idB, idB, idA).
		Delete(&model.TaskDependency{})
	if res.Error != nil {
		return fmt.Errorf("delete dependency: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Newf(apperr.KindNotFound, "no dependency between %d and %d", idA, idB)
	}
	return nil
}
