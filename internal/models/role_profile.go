package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies a staff role on the platform
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleAgent        Role = "agent"
	RoleFleetManager Role = "fleet_manager"
	RoleDriver       Role = "driver"
)

// ValidRoles lists every grantable role
var ValidRoles = []Role{RoleAdmin, RoleAgent, RoleFleetManager, RoleDriver}

// IsValid reports whether the role is one of the known roles
func (r Role) IsValid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// RoleProfile is the authoritative record of a role grant. A user holds a
// role exactly when a profile row with that role exists; there is no
// separate role flag to drift out of sync. ServiceRegionID, when set,
// scopes the holder's authority to a single park.
type RoleProfile struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	Role            Role       `json:"role" db:"role"`
	ServiceRegionID *uuid.UUID `json:"service_region_id,omitempty" db:"service_region_id"`

	// Driver-only fields
	LicenseNumber     *string    `json:"license_number,omitempty" db:"license_number"`
	LicenseExpiryDate *time.Time `json:"license_expiry_date,omitempty" db:"license_expiry_date"`
	VehicleID         *uuid.UUID `json:"vehicle_id,omitempty" db:"vehicle_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GrantRoleRequest is the payload for granting a role to a user
type GrantRoleRequest struct {
	Role            Role       `json:"role" binding:"required"`
	ServiceRegionID *uuid.UUID `json:"service_region_id,omitempty"`

	// Required when Role is driver
	LicenseNumber     *string    `json:"license_number,omitempty"`
	LicenseExpiryDate *time.Time `json:"license_expiry_date,omitempty"`
	VehicleID         *uuid.UUID `json:"vehicle_id,omitempty"`
}

// Validate checks role-specific requirements of a grant
func (r *GrantRoleRequest) Validate() error {
	if !r.Role.IsValid() {
		return NewValidationError("role", "unknown role")
	}
	if r.Role == RoleDriver {
		if r.LicenseNumber == nil || *r.LicenseNumber == "" {
			return NewValidationError("license_number", "license number is required for drivers")
		}
		if r.LicenseExpiryDate == nil {
			return NewValidationError("license_expiry_date", "license expiry date is required for drivers")
		}
	}
	return nil
}
