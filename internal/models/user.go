package models

import "time"

// User represents an account in the system.
type User struct {
	ID           int64     `json:"id"`
	Email        *string   `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	PasswordHash *string   `json:"-"` // Never expose this to the client
	DisplayName  *string   `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserOut is the public representation returned by signup and lookups.
type UserOut struct {
	ID          int64     `json:"id"`
	Email       *string   `json:"email"`
	DisplayName *string   `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Out strips everything but the public fields.
func (u User) Out() UserOut {
	return UserOut{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// UserCreate is the signup payload. Email is a pointer so that an explicit
// empty string is rejected while an absent key is allowed.
type UserCreate struct {
	Email       *string `json:"email" validate:"omitempty,email,max=200"`
	Phone       string  `json:"phone" validate:"omitempty,max=32"`
	Password    string  `json:"password" validate:"omitempty,maxbytes=72"`
	DisplayName string  `json:"display_name" validate:"omitempty,max=200"`
}

// LoginRequest carries credentials to check against a stored hash.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
