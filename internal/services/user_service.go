package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/taskdesk/internal/models"
	"github.com/charlesng35/taskdesk/pkg/crypto"
	apperrors "github.com/charlesng35/taskdesk/pkg/errors"
	"github.com/charlesng35/taskdesk/pkg/logger"
)

// CreateUserInput describes the fields accepted when creating a user.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     models.UserRole
}

// ListUsersOptions controls pagination for user listing.
type ListUsersOptions struct {
	Page     int
	PageSize int
}

// UserPage is one page of users along with the bounds actually applied.
type UserPage struct {
	Users   []models.User
	Total   int64
	Page    int
	PerPage int
}

// TotalPages reports how many pages Total spans at PerPage.
func (p UserPage) TotalPages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// UserService manages persisted accounts.
type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, log: logger.WithModule("users")}, nil
}

// Create provisions a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := normaliseEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: hashed,
		Role:     role,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	s.log.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// FindByEmail returns the user with the given email, or nil when none exists.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = normaliseEmail(email)
	if email == "" {
		return nil, nil
	}

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user service: find user by email: %w", err)
	}
	return &user, nil
}

// List retrieves users ordered by creation time. Out-of-range page or page size
// values fall back to the defaults, and the returned page reports what was applied.
func (s *UserService) List(ctx context.Context, opts ListUsersOptions) (UserPage, error) {
	ctx = ensureContext(ctx)
	page, perPage := pageBounds(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.User{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return UserPage{}, fmt.Errorf("user service: count users: %w", err)
	}

	var users []models.User
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		return UserPage{}, fmt.Errorf("user service: list users: %w", err)
	}

	return UserPage{Users: users, Total: total, Page: page, PerPage: perPage}, nil
}

// UpdatePassword replaces the stored password digest.
func (s *UserService) UpdatePassword(ctx context.Context, id, newPassword string) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(newPassword) == "" {
		return apperrors.NewBadRequest("new password is required")
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash new password: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password", hashed)

	if result.Error != nil {
		return fmt.Errorf("user service: update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	s.log.Info("password updated", zap.String("user_id", id))
	return nil
}

// SetRefreshTokenHash stores the refresh digest. A nil hash revokes it.
func (s *UserService) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("refresh_token_hash", hash)

	if result.Error != nil {
		return fmt.Errorf("user service: set refresh token hash: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateRole changes another user's role. Nobody may change their own role.
func (s *UserService) UpdateRole(ctx context.Context, currentUserID, userID, rawRole string) (string, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(currentUserID) == strings.TrimSpace(userID) {
		return "", ErrSelfRoleChange
	}

	role, ok := models.ParseUserRole(rawRole)
	if !ok {
		return "", ErrInvalidRole
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("role", role)

	if result.Error != nil {
		return "", fmt.Errorf("user service: update role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrUserNotFound
	}

	s.log.Info("role updated",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
		zap.String("changed_by", currentUserID),
	)
	return fmt.Sprintf("Role updated to %s for user with ID %s", role, userID), nil
}

// EnsureAdmin makes sure at least one ADMIN exists. When none does, the account for
// input.Email is promoted or created. The returned flag reports whether anything changed.
func (s *UserService) EnsureAdmin(ctx context.Context, input CreateUserInput) (*models.User, bool, error) {
	ctx = ensureContext(ctx)

	var admins int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return nil, false, fmt.Errorf("user service: count admins: %w", err)
	}
	if admins > 0 {
		return nil, false, nil
	}

	existing, err := s.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if err := s.db.WithContext(ctx).Model(existing).Update("role", models.RoleAdmin).Error; err != nil {
			return nil, false, fmt.Errorf("user service: promote admin: %w", err)
		}
		existing.Role = models.RoleAdmin
		s.log.Info("bootstrap admin promoted", zap.String("user_id", existing.ID))
		return existing, true, nil
	}

	input.Role = models.RoleAdmin
	if strings.TrimSpace(input.Name) == "" {
		input.Name = "Administrator"
	}
	user, err := s.Create(ctx, input)
	if err != nil {
		return nil, false, err
	}
	s.log.Info("bootstrap admin created", zap.String("user_id", user.ID))
	return user, true, nil
}
