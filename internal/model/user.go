package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultProfileImage is stored for users that never uploaded a picture
const DefaultProfileImage = "default.jpg"

// User represents an account in the system
type User struct {
	ID                  int        `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	PasswordHash        string     `json:"-"` // Never exposed in responses
	Role                string     `json:"role"`
	ProfileImage        string     `json:"profileImage"`
	ResetPasswordToken  *string    `json:"-"` // SHA-256 of the mailed token, nil when no reset is pending
	ResetPasswordExpire *time.Time `json:"-"`
	TokenVersion        int        `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// UserSummary is the admin listing projection
type UserSummary struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RegisterRequest is the payload for account creation
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=user admin"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // email or phone
	Password   string `json:"password" binding:"required"`
}

type EditProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// SessionInfo is what checkAuth reports about a valid session
type SessionInfo struct {
	ID        int       `json:"id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"exp"`
}
