package model

import "time"

// Role enumerates portal user roles.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleFaculty    Role = "FACULTY"
	RoleManagement Role = "MANAGEMENT"
)

// IsStaff reports whether the role may manage quizzes and grade attempts.
func (r Role) IsStaff() bool {
	return r == RoleFaculty || r == RoleManagement
}

// User represents a portal user of any role.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
