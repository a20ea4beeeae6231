package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/models"
)

// UserRepository handles database operations for users, addresses and
// emergency contacts
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user account
func (r *UserRepository) CreateUser(user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone_number, date_of_birth, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING is_active, created_at, updated_at`

	err := r.db.QueryRow(
		query,
		user.ID, strings.ToLower(user.Email), user.PasswordHash,
		user.FirstName, user.LastName, user.PhoneNumber, user.DateOfBirth,
	).Scan(&user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return models.NewValidationError("email", "an account with this email already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID, including derived roles
func (r *UserRepository) GetByID(userID uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone_number,
		       date_of_birth, is_active, created_at, updated_at
		FROM users
		WHERE id = $1`

	err := r.db.Get(user, query, userID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := r.loadRoles(user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetByEmail retrieves a user by email, including derived roles
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone_number,
		       date_of_birth, is_active, created_at, updated_at
		FROM users
		WHERE email = $1`

	err := r.db.Get(user, query, strings.ToLower(email))
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := r.loadRoles(user); err != nil {
		return nil, err
	}

	return user, nil
}

// loadRoles fills the derived role set from role_profiles. Profile rows are
// the single source of truth for role membership.
func (r *UserRepository) loadRoles(user *models.User) error {
	roles := []models.Role{}
	err := r.db.Select(&roles, `SELECT role FROM role_profiles WHERE user_id = $1 ORDER BY role`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load roles: %w", err)
	}
	user.Roles = roles
	return nil
}

// List retrieves users with pagination
func (r *UserRepository) List(limit, offset int) ([]models.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone_number,
		       date_of_birth, is_active, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	users := []models.User{}
	if err := r.db.Select(&users, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// UpdateProfile applies the mutable profile fields
func (r *UserRepository) UpdateProfile(userID uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	query := `
		UPDATE users
		SET first_name    = COALESCE($2, first_name),
		    last_name     = COALESCE($3, last_name),
		    phone_number  = COALESCE($4, phone_number),
		    date_of_birth = COALESCE($5, date_of_birth),
		    updated_at    = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, userID, req.FirstName, req.LastName, req.PhoneNumber, req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, models.NewNotFoundError("user", userID.String())
	}

	return r.GetByID(userID)
}

// Deactivate disables a user account without deleting its records
func (r *UserRepository) Deactivate(userID uuid.UUID) error {
	result, err := r.db.Exec(`UPDATE users SET is_active = false, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("user", userID.String())
	}

	return nil
}

// ============================================================================
// ADDRESSES
// ============================================================================

// CreateAddress inserts an address. A default address clears the previous
// default for the same user.
func (r *UserRepository) CreateAddress(address *models.Address) error {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}

	if address.IsDefault {
		if _, err := r.db.Exec(
			`UPDATE addresses SET is_default = false, updated_at = NOW() WHERE user_id = $1 AND is_default`,
			address.UserID,
		); err != nil {
			return fmt.Errorf("failed to clear default address: %w", err)
		}
	}

	query := `
		INSERT INTO addresses (id, user_id, street_address, city, state, postal_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		query,
		address.ID, address.UserID, address.StreetAddress, address.City,
		address.State, address.PostalCode, address.Country, address.IsDefault,
	).Scan(&address.CreatedAt, &address.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}

	return nil
}

// GetAddresses lists a user's addresses, default first
func (r *UserRepository) GetAddresses(userID uuid.UUID) ([]models.Address, error) {
	query := `
		SELECT id, user_id, street_address, city, state, postal_code, country,
		       is_default, created_at, updated_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, city`

	addresses := []models.Address{}
	if err := r.db.Select(&addresses, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}

	return addresses, nil
}

// DeleteAddress removes an address owned by the user
func (r *UserRepository) DeleteAddress(userID, addressID uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("address", addressID.String())
	}

	return nil
}

// ============================================================================
// EMERGENCY CONTACTS
// ============================================================================

// CreateEmergencyContact inserts an emergency contact
func (r *UserRepository) CreateEmergencyContact(contact *models.EmergencyContact) error {
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}

	query := `
		INSERT INTO emergency_contacts (id, user_id, name, phone_number, relationship)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRow(
		query,
		contact.ID, contact.UserID, contact.Name, contact.PhoneNumber, contact.Relationship,
	).Scan(&contact.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create emergency contact: %w", err)
	}

	return nil
}

// GetEmergencyContacts lists a user's emergency contacts
func (r *UserRepository) GetEmergencyContacts(userID uuid.UUID) ([]models.EmergencyContact, error) {
	query := `
		SELECT id, user_id, name, phone_number, relationship, created_at
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY name`

	contacts := []models.EmergencyContact{}
	if err := r.db.Select(&contacts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list emergency contacts: %w", err)
	}

	return contacts, nil
}

// DeleteEmergencyContact removes an emergency contact owned by the user
func (r *UserRepository) DeleteEmergencyContact(userID, contactID uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2`, contactID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete emergency contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("emergency contact", contactID.String())
	}

	return nil
}
