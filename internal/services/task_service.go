package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/taskdesk/internal/models"
)

// CreateTaskInput describes a new task.
type CreateTaskInput struct {
	Name       string
	CategoryID string
	Price      float64
}

// UpdateTaskInput enumerates mutable task attributes.
type UpdateTaskInput struct {
	Name  *string
	Price *float64
}

// TaskService manages priced tasks.
type TaskService struct {
	db *gorm.DB
}

// NewTaskService constructs a TaskService.
func NewTaskService(db *gorm.DB) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	return &TaskService{db: db}, nil
}

// Create adds a task under an existing category.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTaskNameRequired
	}

	var categories int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", strings.TrimSpace(input.CategoryID)).Count(&categories).Error; err != nil {
		return nil, fmt.Errorf("task service: check category: %w", err)
	}
	if categories == 0 {
		return nil, ErrCategoryNotFound
	}

	if input.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	exists, err := s.nameTaken(ctx, name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTaskExists
	}

	task := &models.Task{
		Name:       name,
		CategoryID: strings.TrimSpace(input.CategoryID),
		Price:      input.Price,
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		switch {
		case isUniqueConstraintError(err):
			return nil, ErrTaskExists
		case isForeignKeyError(err):
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("task service: create: %w", err)
	}
	return task, nil
}

// List returns all tasks ordered by name.
func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	ctx = ensureContext(ctx)

	var tasks []models.Task
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task service: list: %w", err)
	}
	return tasks, nil
}

// Get loads a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	ctx = ensureContext(ctx)

	var task models.Task
	err := s.db.WithContext(ctx).First(&task, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: get: %w", err)
	}
	return &task, nil
}

// Update applies the supplied name and/or price.
func (s *TaskService) Update(ctx context.Context, id string, input UpdateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTaskNameRequired
		}
		if name != task.Name {
			exists, err := s.nameTaken(ctx, name, task.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrTaskExists
			}
		}
		updates["name"] = name
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, ErrInvalidPrice
		}
		updates["price"] = *input.Price
	}
	if len(updates) == 0 {
		return task, nil
	}

	if err := s.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrTaskExists
		}
		return nil, fmt.Errorf("task service: update: %w", err)
	}
	return s.Get(ctx, task.ID)
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Delete(&models.Task{})
	if result.Error != nil {
		return fmt.Errorf("task service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *TaskService) nameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	query := s.db.WithContext(ctx).Model(&models.Task{}).Where("name = ?", name)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("task service: check name: %w", err)
	}
	return count > 0, nil
}
