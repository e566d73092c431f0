package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/taskdesk/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
// Categories must exist before tasks so the foreign key can be created.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Task{},
		&models.CacheEntry{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
