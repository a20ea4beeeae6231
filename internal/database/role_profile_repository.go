package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/models"
)

// RoleProfileRepository handles database operations for role_profiles.
// A role grant IS the existence of a profile row; there is no separate
// flag or group membership to keep in sync.
type RoleProfileRepository struct {
	db DB
}

// NewRoleProfileRepository creates a new RoleProfileRepository
func NewRoleProfileRepository(db DB) *RoleProfileRepository {
	return &RoleProfileRepository{db: db}
}

// Grant creates a role profile for a user. Granting an already-held role
// fails on the (user_id, role) uniqueness constraint.
func (r *RoleProfileRepository) Grant(profile *models.RoleProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}

	query := `
		INSERT INTO role_profiles (
			id, user_id, role, service_region_id,
			license_number, license_expiry_date, vehicle_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		query,
		profile.ID, profile.UserID, profile.Role, profile.ServiceRegionID,
		profile.LicenseNumber, profile.LicenseExpiryDate, profile.VehicleID,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return models.NewValidationError("role", "user already holds this role")
		}
		return fmt.Errorf("failed to grant role: %w", err)
	}

	return nil
}

// Revoke removes a role profile. Deleting the profile row is the entire
// role revocation; derived role views disappear with it.
func (r *RoleProfileRepository) Revoke(userID uuid.UUID, role models.Role) error {
	result, err := r.db.Exec(`DELETE FROM role_profiles WHERE user_id = $1 AND role = $2`, userID, role)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("role profile", fmt.Sprintf("%s/%s", userID, role))
	}

	return nil
}

// GetProfile retrieves a user's profile for a specific role
func (r *RoleProfileRepository) GetProfile(userID uuid.UUID, role models.Role) (*models.RoleProfile, error) {
	profile := &models.RoleProfile{}
	query := `
		SELECT id, user_id, role, service_region_id,
		       license_number, license_expiry_date, vehicle_id,
		       created_at, updated_at
		FROM role_profiles
		WHERE user_id = $1 AND role = $2`

	err := r.db.Get(profile, query, userID, role)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("role profile", fmt.Sprintf("%s/%s", userID, role))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch role profile: %w", err)
	}

	return profile, nil
}

// GetProfilesForUser retrieves all role profiles held by a user
func (r *RoleProfileRepository) GetProfilesForUser(userID uuid.UUID) ([]models.RoleProfile, error) {
	query := `
		SELECT id, user_id, role, service_region_id,
		       license_number, license_expiry_date, vehicle_id,
		       created_at, updated_at
		FROM role_profiles
		WHERE user_id = $1
		ORDER BY role`

	profiles := []models.RoleProfile{}
	if err := r.db.Select(&profiles, query, userID); err != nil {
		return nil, fmt.Errorf("failed to fetch role profiles: %w", err)
	}

	return profiles, nil
}

// ListByRole retrieves all profiles for a role, optionally filtered by
// service region
func (r *RoleProfileRepository) ListByRole(role models.Role, regionID *uuid.UUID) ([]models.RoleProfile, error) {
	query := `
		SELECT id, user_id, role, service_region_id,
		       license_number, license_expiry_date, vehicle_id,
		       created_at, updated_at
		FROM role_profiles
		WHERE role = $1
		  AND ($2::uuid IS NULL OR service_region_id = $2)
		ORDER BY created_at`

	profiles := []models.RoleProfile{}
	if err := r.db.Select(&profiles, query, role, regionID); err != nil {
		return nil, fmt.Errorf("failed to list role profiles: %w", err)
	}

	return profiles, nil
}

// UpdateServiceRegion re-scopes a profile to a different park
func (r *RoleProfileRepository) UpdateServiceRegion(userID uuid.UUID, role models.Role, regionID *uuid.UUID) error {
	result, err := r.db.Exec(
		`UPDATE role_profiles SET service_region_id = $3, updated_at = NOW() WHERE user_id = $1 AND role = $2`,
		userID, role, regionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update service region: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("role profile", fmt.Sprintf("%s/%s", userID, role))
	}

	return nil
}
