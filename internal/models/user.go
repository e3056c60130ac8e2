package models

import (
	"time"
)

// UserDB represents a row of the users table
type UserDB struct {
	ID           int64      `json:"id" db:"id"`                 // Primary key
	Username     string     `json:"username" db:"username"`     // Unique login name
	PasswordHash string     `json:"-" db:"password_hash"`       // bcrypt hash, never serialized
	Email        string     `json:"email" db:"email"`           // Contact email
	Role         Role       `json:"role" db:"role"`             // Authorization role
	LastLogin    *time.Time `json:"last_login" db:"last_login"` // Set on every successful login
	CreatedAt    time.Time  `json:"created_at" db:"created_at"` // Creation timestamp
}
