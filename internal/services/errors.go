package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/taskdesk/pkg/errors"
)

// Errors surfaced to API consumers. Several messages are shown to end users verbatim.
var (
	ErrUserNotFound         = apperrors.NewNotFound("User not found")
	ErrEmailInUse           = apperrors.NewConflict("Email already in use!")
	ErrWrongPassword        = apperrors.NewUnauthorized("Wrong password")
	ErrCurrentPassword      = apperrors.NewBadRequest("Current password is incorrect")
	ErrInvalidInvitation    = apperrors.NewBadRequest("Invalid or expired invitation token")
	ErrInvalidResetToken    = apperrors.NewNotFound("Invalid or expired reset token")
	ErrSelfRoleChange       = apperrors.NewForbidden("You cannot change your own role.")
	ErrInvalidRole          = apperrors.NewBadRequest("Role must be ADMIN or USER")
	ErrCategoryNotFound     = apperrors.NewNotFound("Category not found")
	ErrCategoryExists       = apperrors.NewConflict("Category with this name already exists")
	ErrCategoryInUse        = apperrors.NewConflict("Category still has tasks")
	ErrCategoryNameRequired = apperrors.NewBadRequest("Category name cannot be empty")
	ErrCategoryNameTooLong  = apperrors.NewBadRequest("Category name cannot exceed 50 characters")
	ErrTaskNotFound         = apperrors.NewNotFound("Task not found")
	ErrTaskExists           = apperrors.NewConflict("Task with this name already exists")
	ErrTaskNameRequired     = apperrors.NewBadRequest("Task name cannot be empty")
	ErrInvalidPrice         = apperrors.NewBadRequest("Price must be greater than 0")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate")
}

// isForeignKeyError detects rows still referenced by (or referencing a missing) parent.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23503" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && (myErr.Number == 1451 || myErr.Number == 1452) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "foreign key")
}
