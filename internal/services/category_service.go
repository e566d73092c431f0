package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/charlesng35/taskdesk/internal/models"
)

const maxCategoryNameLength = 50

// CategoryService manages task categories.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(db *gorm.DB) (*CategoryService, error) {
	if db == nil {
		return nil, errors.New("category service: db is required")
	}
	return &CategoryService{db: db}, nil
}

func normaliseCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrCategoryNameRequired
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLength {
		return "", ErrCategoryNameTooLong
	}
	return name, nil
}

// Create adds a category with a unique name.
func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	ctx = ensureContext(ctx)

	name, err := normaliseCategoryName(name)
	if err != nil {
		return nil, err
	}

	exists, err := s.nameTaken(ctx, name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCategoryExists
	}

	category := &models.Category{Name: name}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("category service: create: %w", err)
	}
	return category, nil
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	ctx = ensureContext(ctx)

	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("category service: list: %w", err)
	}
	return categories, nil
}

// Get loads a category by id.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	ctx = ensureContext(ctx)

	var category models.Category
	err := s.db.WithContext(ctx).First(&category, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("category service: get: %w", err)
	}
	return &category, nil
}

// Update renames a category.
func (s *CategoryService) Update(ctx context.Context, id, name string) (*models.Category, error) {
	ctx = ensureContext(ctx)

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name, err = normaliseCategoryName(name)
	if err != nil {
		return nil, err
	}

	exists, err := s.nameTaken(ctx, name, category.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCategoryExists
	}

	if err := s.db.WithContext(ctx).Model(category).Update("name", name).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("category service: update: %w", err)
	}
	category.Name = name
	return category, nil
}

// Delete removes a category that no task references.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var tasks int64
	if err := s.db.WithContext(ctx).Model(&models.Task{}).Where("category_id = ?", category.ID).Count(&tasks).Error; err != nil {
		return fmt.Errorf("category service: count tasks: %w", err)
	}
	if tasks > 0 {
		return ErrCategoryInUse
	}

	if err := s.db.WithContext(ctx).Delete(category).Error; err != nil {
		if isForeignKeyError(err) {
			return ErrCategoryInUse
		}
		return fmt.Errorf("category service: delete: %w", err)
	}
	return nil
}

func (s *CategoryService) nameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	query := s.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("category service: check name: %w", err)
	}
	return count > 0, nil
}
