package models

import "strings"

// UserRole is the capability a principal holds.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseUserRole normalises the raw value and validates it.
func ParseUserRole(raw string) (UserRole, bool) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// User is an account able to authenticate. Users are never hard-deleted.
type User struct {
	BaseModel

	Name     string   `gorm:"not null" json:"name"`
	Email    string   `gorm:"uniqueIndex;not null" json:"email"`
	Password string   `gorm:"not null" json:"-"`
	Role     UserRole `gorm:"type:varchar(16);not null;default:USER;index" json:"role"`

	RefreshTokenHash *string `json:"-"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
