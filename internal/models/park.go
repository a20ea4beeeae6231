package models

import (
	"time"

	"github.com/google/uuid"
)

// Park is a station/depot location serving as a route endpoint
type Park struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Code         string    `json:"code" db:"code"`
	Address      string    `json:"address" db:"address"`
	ContactPhone *string   `json:"contact_phone,omitempty" db:"contact_phone"`
	ContactEmail *string   `json:"contact_email,omitempty" db:"contact_email"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CreateParkRequest is the payload for creating a park
type CreateParkRequest struct {
	Name         string  `json:"name" binding:"required"`
	Code         string  `json:"code" binding:"required,max=10"`
	Address      string  `json:"address" binding:"required"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
}

// UpdateParkRequest carries the mutable park fields
type UpdateParkRequest struct {
	Name         *string `json:"name,omitempty"`
	Address      *string `json:"address,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}
