package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/models"
)

// ParkRepository handles database operations for the parks table
type ParkRepository struct {
	db DB
}

// NewParkRepository creates a new ParkRepository
func NewParkRepository(db DB) *ParkRepository {
	return &ParkRepository{db: db}
}

// Create inserts a new park
func (r *ParkRepository) Create(park *models.Park) error {
	if park.ID == uuid.Nil {
		park.ID = uuid.New()
	}

	query := `
		INSERT INTO parks (id, name, code, address, contact_phone, contact_email, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		query,
		park.ID, park.Name, park.Code, park.Address,
		park.ContactPhone, park.ContactEmail, park.IsActive,
	).Scan(&park.CreatedAt, &park.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create park: %w", err)
	}

	return nil
}

// GetByID retrieves a park by ID
func (r *ParkRepository) GetByID(parkID uuid.UUID) (*models.Park, error) {
	park := &models.Park{}
	query := `
		SELECT id, name, code, address, contact_phone, contact_email,
		       is_active, created_at, updated_at
		FROM parks
		WHERE id = $1`

	err := r.db.Get(park, query, parkID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("park", parkID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch park: %w", err)
	}

	return park, nil
}

// GetByCode retrieves a park by its unique short code
func (r *ParkRepository) GetByCode(code string) (*models.Park, error) {
	park := &models.Park{}
	query := `
		SELECT id, name, code, address, contact_phone, contact_email,
		       is_active, created_at, updated_at
		FROM parks
		WHERE code = $1`

	err := r.db.Get(park, query, code)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("park", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch park: %w", err)
	}

	return park, nil
}

// List retrieves all parks, active first
func (r *ParkRepository) List() ([]models.Park, error) {
	query := `
		SELECT id, name, code, address, contact_phone, contact_email,
		       is_active, created_at, updated_at
		FROM parks
		ORDER BY is_active DESC, name`

	parks := []models.Park{}
	if err := r.db.Select(&parks, query); err != nil {
		return nil, fmt.Errorf("failed to list parks: %w", err)
	}

	return parks, nil
}

// Update applies the mutable fields of a park
func (r *ParkRepository) Update(parkID uuid.UUID, req *models.UpdateParkRequest) (*models.Park, error) {
	query := `
		UPDATE parks
		SET name          = COALESCE($2, name),
		    address       = COALESCE($3, address),
		    contact_phone = COALESCE($4, contact_phone),
		    contact_email = COALESCE($5, contact_email),
		    is_active     = COALESCE($6, is_active),
		    updated_at    = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, parkID, req.Name, req.Address, req.ContactPhone, req.ContactEmail, req.IsActive)
	if err != nil {
		return nil, fmt.Errorf("failed to update park: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, models.NewNotFoundError("park", parkID.String())
	}

	return r.GetByID(parkID)
}

// Deactivate soft-disables a park. Parks are never hard-deleted while
// vehicles or role profiles reference them.
func (r *ParkRepository) Deactivate(parkID uuid.UUID) error {
	result, err := r.db.Exec(`UPDATE parks SET is_active = false, updated_at = NOW() WHERE id = $1`, parkID)
	if err != nil {
		return fmt.Errorf("failed to deactivate park: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("park", parkID.String())
	}

	return nil
}
