// Package models defines the records the repositories persist and the request
// bodies the handlers decode.
package models

import (
	"time"

	"github.com/taskhub/backend/internal/constants"
)

// User represents a registered account.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Position     string    `json:"position" db:"position"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates a new User. The password hash is set by the caller.
func NewUser(name, email, position string) *User {
	now := time.Now()
	return &User{
		Name:      name,
		Email:     email,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TableName returns the database table name for the User model.
func (u *User) TableName() string {
	return constants.TableUsers
}

// IsAdmin reports whether the user may manage other accounts.
func (u *User) IsAdmin() bool {
	return u.Position == constants.PositionAdmin
}

// Sanitize returns a copy without credential material.
func (u *User) Sanitize() *User {
	sanitized := *u
	sanitized.PasswordHash = ""
	return &sanitized
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
	Position string `json:"position" validate:"omitempty,position"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserUpdateRequest is the body of POST /api/user/update. Nil fields are left unchanged.
type UserUpdateRequest struct {
	ID       int64   `json:"id" validate:"required,gt=0"`
	Name     *string `json:"name" validate:"omitempty,notblank,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Position *string `json:"position" validate:"omitempty,position"`
}

// Apply copies the non-nil fields onto u.
func (r *UserUpdateRequest) Apply(u *User) {
	if r.Name != nil {
		u.Name = *r.Name
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	if r.Position != nil {
		u.Position = *r.Position
	}
}

// Empty reports whether the request changes nothing.
func (r *UserUpdateRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Position == nil
}

// UserResponse wraps a user in the {user} envelope the auth endpoints return.
type UserResponse struct {
	User *User `json:"user"`
}
