package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model `json:"-"`
	ID         uint   `json:"id" gorm:"primaryKey"`
	Username   string `json:"username" gorm:"uniqueIndex"`
	Email      string `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password   string `json:"-"`                        // Store hashed password, ignore for JSON serialization
	Avatar     string `json:"avatar,omitempty"`
	Bio        string `json:"bio,omitempty"`
	Role       string `json:"role" gorm:"size:10;default:user"`
}

// RegisterRequest defines the request body for user registration
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the request body for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest defines the request body for changing the password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// UpdateProfileRequest defines the request body for profile updates
type UpdateProfileRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Avatar   string `json:"avatar,omitempty" validate:"omitempty,url"`
	Bio      string `json:"bio,omitempty" validate:"omitempty,max=300"`
}

// Author carries the denormalized user fields embedded in contribution
// and story responses.
type Author struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the admin role.
func (c *JwtCustomClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
