package models

import (
	"time"
)

// User represents an article author
type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CreateUserInput is the payload accepted when creating a user
type CreateUserInput struct {
	Name string `json:"name" validate:"required,notblank"`
}
