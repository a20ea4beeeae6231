package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/parklink/booking-backend/internal/models"
)

const paymentColumns = `id, booking_id, user_id, amount, reference, verified, created_at, updated_at`

// PaymentRepository handles database operations for payments. Verification
// spans the payments and bookings tables, so it takes the full *sqlx.DB.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a pending payment. The unique booking_id constraint
// guarantees at most one payment record per booking.
func (r *PaymentRepository) Create(payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}

	query := `
		INSERT INTO payments (id, booking_id, user_id, amount, verified)
		VALUES ($1, $2, $3, $4, false)
		RETURNING verified, created_at, updated_at`

	err := r.db.QueryRow(
		query,
		payment.ID, payment.BookingID, payment.UserID, payment.Amount,
	).Scan(&payment.Verified, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return models.NewValidationError("booking_id", "a payment already exists for this booking")
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByBookingID retrieves the payment for a booking
func (r *PaymentRepository) GetByBookingID(bookingID uuid.UUID) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`

	err := r.db.Get(payment, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("payment", bookingID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}

	return payment, nil
}

// GetByReference retrieves a payment by its gateway reference
func (r *PaymentRepository) GetByReference(reference string) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`

	err := r.db.Get(payment, query, reference)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("payment", reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}

	return payment, nil
}

// SetReference records the gateway reference assigned at initialization
func (r *PaymentRepository) SetReference(paymentID uuid.UUID, reference string) error {
	result, err := r.db.Exec(
		`UPDATE payments SET reference = $2, updated_at = NOW() WHERE id = $1`,
		paymentID, reference,
	)
	if err != nil {
		return fmt.Errorf("failed to set payment reference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("payment", paymentID.String())
	}

	return nil
}

// MarkVerified flips the payment to verified and confirms the linked
// booking in one transaction. Verifying an already verified payment is a
// no-op, so gateway callbacks may be replayed safely.
func (r *PaymentRepository) MarkVerified(paymentID uuid.UUID) (*models.Payment, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin verification: %w", err)
	}
	defer tx.Rollback()

	payment := &models.Payment{}
	err = tx.Get(payment, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("payment", paymentID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}

	if payment.Verified {
		return payment, nil
	}

	err = tx.QueryRow(
		`UPDATE payments SET verified = true, updated_at = NOW() WHERE id = $1 RETURNING verified, updated_at`,
		paymentID,
	).Scan(&payment.Verified, &payment.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE bookings
		SET payment_status = 'confirmed', is_paid = true, updated_at = NOW()
		WHERE id = $1`, payment.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit verification: %w", err)
	}

	return payment, nil
}
