package models

import "time"

// LoginRequest represents the JSON body for user login
// swagger:model LoginRequest
type LoginRequest struct {
	// Username
	// required: true
	// example: admin
	Username string `json:"username" validate:"required"`

	// Password
	// required: true
	// example: Admin@123
	Password string `json:"password" validate:"required"`
}

// UserSummary is the user part of a login response
// swagger:model UserSummary
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// LoginResponse represents a successful login response
// swagger:model LoginResponse
type LoginResponse struct {
	User  UserSummary `json:"user"`
	Token string      `json:"token"`
}

// ChangePasswordRequest represents the JSON body for a password change
// swagger:model ChangePasswordRequest
type ChangePasswordRequest struct {
	// Current password
	// required: true
	CurrentPassword string `json:"currentPassword" validate:"required"`

	// New password, at least 8 characters with lower, upper, digit and one of @$!%*?&
	// required: true
	NewPassword string `json:"newPassword" validate:"required,password"`
}

// ProfileResponse is returned by /api/auth/me
// swagger:model ProfileResponse
type ProfileResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	LastLogin *time.Time `json:"last_login"`
}

// NewUserSummary copies the public fields of u.
func NewUserSummary(u *UserDB) UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// NewProfileResponse copies the profile fields of u.
func NewProfileResponse(u *UserDB) ProfileResponse {
	return ProfileResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, LastLogin: u.LastLogin}
}
