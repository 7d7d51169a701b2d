package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"exchangedesk/internal/model"
)

// TaskFilter narrows List. A nil ExchangeID lists every task the user can
// see: tasks they created or are assigned to, and tasks of exchanges they
// own or participate in.
type TaskFilter struct {
	UserID     uuid.UUID
	ExchangeID *uuid.UUID
}

type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, f TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ TaskRepositoryInterface = (*TaskRepository)(nil)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task by its ID together with its assignee
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).Preload("Assignee").First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// List retrieves tasks in creation order, newest first
func (r *TaskRepository) List(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	db := r.db.WithContext(ctx)
	q := db.Preload("Assignee").Order("created_at DESC")
	if f.ExchangeID != nil {
		q = q.Where("exchange_id = ?", *f.ExchangeID)
	} else {
		owned := db.Model(&model.Exchange{}).Select("id").Where("owner_id = ?", f.UserID)
		joined := db.Model(&model.Participant{}).Select("exchange_id").Where("user_id = ?", f.UserID)
		q = q.Where("created_by = ? OR assignee_id = ? OR exchange_id IN (?) OR exchange_id IN (?)",
			f.UserID, f.UserID, owned, joined)
	}

	var tasks []model.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// taskColumns are the columns an update may change, zero values included.
var taskColumns = []string{
	"title", "description", "status", "priority", "due_date", "assignee_id",
	"exchange_id", "tags", "subtask_count", "subtasks_done", "updated_at",
}

// Update writes the mutable columns of an existing task
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Model(task).Select(taskColumns).Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
