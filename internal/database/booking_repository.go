package database

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/parklink/booking-backend/internal/models"
	qrcode "github.com/skip2/go-qrcode"
)

const bookingCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const bookingCodeLength = 8
const maxCodeAttempts = 10

const bookingColumns = `
	id, passenger_id, vehicle_id, return_vehicle_id, trip_type,
	source_park_id, destination_park_id, travel_date, return_date,
	pickup_type, pickup_address,
	adult_count, children_count, return_adult_count, return_children_count,
	luggage_count, special_requests,
	amount, payment_status, is_paid,
	booking_code, qr_code,
	is_checked_in, is_checked_out, check_in_time, check_out_time,
	cancellation_reason, cancellation_time,
	booking_date, updated_at`

// BookingRepository handles database operations for bookings. It owns the
// reservation transaction and therefore takes the full *sqlx.DB rather
// than the narrow DB interface.
type BookingRepository struct {
	db *sqlx.DB

	// qrEncode renders the booking code as a PNG. Overridable in tests.
	qrEncode func(code string) ([]byte, error)
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{
		db: db,
		qrEncode: func(code string) ([]byte, error) {
			return qrcode.Encode(code, qrcode.Medium, 256)
		},
	}
}

// GenerateBookingCode produces a random 8 character uppercase alphanumeric
// code
func GenerateBookingCode() (string, error) {
	code := make([]byte, bookingCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingCodeCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking code: %w", err)
		}
		code[i] = bookingCodeCharset[n.Int64()]
	}
	return string(code), nil
}

// Reserve atomically decrements the seats of the selected vehicle (and the
// return vehicle for round trips) and inserts the booking. Seats are
// re-checked under a row lock; a concurrent shortfall aborts the whole
// transaction and nothing is persisted. Vehicles are always locked in
// departure-then-return order.
func (r *BookingRepository) Reserve(booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin reservation: %w", err)
	}
	defer tx.Rollback()

	if err := r.lockAndTakeSeats(tx, booking.VehicleID, booking.TotalSeats()); err != nil {
		return err
	}

	if booking.ReturnVehicleID != nil {
		if err := r.lockAndTakeSeats(tx, *booking.ReturnVehicleID, booking.ReturnSeats()); err != nil {
			return err
		}
	}

	code, err := r.uniqueBookingCode(tx)
	if err != nil {
		return err
	}
	booking.BookingCode = &code

	qr, err := r.qrEncode(code)
	if err != nil {
		return fmt.Errorf("failed to render booking QR code: %w", err)
	}
	booking.QRCode = qr

	query := `
		INSERT INTO bookings (
			id, passenger_id, vehicle_id, return_vehicle_id, trip_type,
			source_park_id, destination_park_id, travel_date, return_date,
			pickup_type, pickup_address,
			adult_count, children_count, return_adult_count, return_children_count,
			luggage_count, special_requests,
			amount, payment_status, is_paid,
			booking_code, qr_code
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, 'pending', false, $19, $20
		)
		RETURNING payment_status, is_paid, booking_date, updated_at`

	err = tx.QueryRow(
		query,
		booking.ID, booking.PassengerID, booking.VehicleID, booking.ReturnVehicleID, booking.TripType,
		booking.SourcePark, booking.DestinationPark, booking.TravelDate, booking.ReturnDate,
		booking.PickupType, booking.PickupAddress,
		booking.AdultCount, booking.ChildrenCount, booking.ReturnAdultCount, booking.ReturnChildrenCount,
		booking.LuggageCount, booking.SpecialRequests,
		booking.Amount, booking.BookingCode, booking.QRCode,
	).Scan(&booking.PaymentStatus, &booking.IsPaid, &booking.BookingDate, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	return nil
}

// lockAndTakeSeats locks the vehicle row, re-checks the seat count and
// decrements it. A vehicle whose pool hits zero is marked fully booked.
func (r *BookingRepository) lockAndTakeSeats(tx *sqlx.Tx, vehicleID uuid.UUID, seats int) error {
	var remaining int
	err := tx.QueryRow(`SELECT remaining_seats FROM vehicles WHERE id = $1 FOR UPDATE`, vehicleID).Scan(&remaining)
	if err == sql.ErrNoRows {
		return models.NewNotFoundError("vehicle", vehicleID.String())
	}
	if err != nil {
		return fmt.Errorf("failed to lock vehicle: %w", err)
	}

	if remaining < seats {
		return &models.ConcurrentExhaustionError{VehicleID: vehicleID.String()}
	}

	_, err = tx.Exec(`
		UPDATE vehicles
		SET remaining_seats = remaining_seats - $2,
		    is_available    = remaining_seats - $2 > 0,
		    is_booked       = remaining_seats - $2 = 0,
		    updated_at      = NOW()
		WHERE id = $1`, vehicleID, seats)
	if err != nil {
		return fmt.Errorf("failed to take seats: %w", err)
	}

	return nil
}

// uniqueBookingCode generates a booking code that is not in use, retrying
// a bounded number of times
func (r *BookingRepository) uniqueBookingCode(tx *sqlx.Tx) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateBookingCode()
		if err != nil {
			return "", err
		}

		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM bookings WHERE booking_code = $1)`, code).Scan(&exists); err != nil {
			return "", fmt.Errorf("failed to check booking code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique booking code after %d attempts", maxCodeAttempts)
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID uuid.UUID) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := r.db.Get(booking, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("booking", bookingID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return booking, nil
}

// GetByCode retrieves a booking by its booking code. Codes nulled at
// check-out no longer resolve.
func (r *BookingRepository) GetByCode(code string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_code = $1`

	err := r.db.Get(booking, query, code)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("booking", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return booking, nil
}

// ListByPassenger retrieves a passenger's bookings, newest first
func (r *BookingRepository) ListByPassenger(passengerID uuid.UUID) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE passenger_id = $1 ORDER BY booking_date DESC`

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, passengerID); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

// ListAll retrieves bookings with pagination, optionally scoped to a
// source park
func (r *BookingRepository) ListAll(parkID *uuid.UUID, limit, offset int) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1::uuid IS NULL OR source_park_id = $1)
		ORDER BY booking_date DESC
		LIMIT $2 OFFSET $3`

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, parkID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

// Upcoming retrieves a passenger's future, non-canceled bookings
func (r *BookingRepository) Upcoming(passengerID uuid.UUID) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE passenger_id = $1
		  AND travel_date >= $2
		  AND payment_status <> 'canceled'
		  AND NOT is_checked_out
		ORDER BY travel_date ASC`

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, passengerID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to list upcoming bookings: %w", err)
	}

	return bookings, nil
}

// Past retrieves a passenger's completed or elapsed bookings
func (r *BookingRepository) Past(passengerID uuid.UUID) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE passenger_id = $1
		  AND (travel_date < $2 OR is_checked_out)
		ORDER BY travel_date DESC`

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, passengerID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to list past bookings: %w", err)
	}

	return bookings, nil
}

// Update applies the pre-check-in mutable fields of a booking
func (r *BookingRepository) Update(bookingID uuid.UUID, req *models.UpdateBookingRequest) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET pickup_address        = COALESCE($2, pickup_address),
		    adult_count           = COALESCE($3, adult_count),
		    children_count        = COALESCE($4, children_count),
		    return_adult_count    = COALESCE($5, return_adult_count),
		    return_children_count = COALESCE($6, return_children_count),
		    luggage_count         = COALESCE($7, luggage_count),
		    special_requests      = COALESCE($8, special_requests),
		    updated_at            = NOW()
		WHERE id = $1 AND NOT is_checked_in`

	result, err := r.db.Exec(
		query,
		bookingID, req.PickupAddress, req.AdultCount, req.ChildrenCount,
		req.ReturnAdultCount, req.ReturnChildrenCount, req.LuggageCount, req.SpecialRequests,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, models.NewNotFoundError("booking", bookingID.String())
	}

	return r.GetByID(bookingID)
}

// CheckIn marks a booking checked in
func (r *BookingRepository) CheckIn(bookingID uuid.UUID) error {
	result, err := r.db.Exec(`
		UPDATE bookings
		SET is_checked_in = true, check_in_time = NOW(), updated_at = NOW()
		WHERE id = $1 AND NOT is_checked_in`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to check in booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewValidationError("booking", "booking is already checked in or does not exist")
	}

	return nil
}

// CheckOut marks a checked-in booking completed and invalidates its
// booking code
func (r *BookingRepository) CheckOut(bookingID uuid.UUID) error {
	result, err := r.db.Exec(`
		UPDATE bookings
		SET is_checked_out = true, check_out_time = NOW(), booking_code = NULL, updated_at = NOW()
		WHERE id = $1 AND is_checked_in AND NOT is_checked_out`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to check out booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewValidationError("booking", "booking must be checked in before check-out")
	}

	return nil
}

// Cancel cancels a booking and releases its seats back to the vehicle pool
// in the same transaction. Checked-in bookings cannot be canceled.
func (r *BookingRepository) Cancel(bookingID uuid.UUID, reason string) (*models.Booking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin cancellation: %w", err)
	}
	defer tx.Rollback()

	booking := &models.Booking{}
	err = tx.Get(booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, bookingID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("booking", bookingID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	if booking.IsCheckedIn {
		return nil, models.NewValidationError("booking", "checked-in bookings cannot be canceled")
	}
	if booking.PaymentStatus == models.BookingPaymentCanceled {
		return nil, models.NewValidationError("booking", "booking is already canceled")
	}

	if err := r.releaseSeats(tx, booking.VehicleID, booking.TotalSeats()); err != nil {
		return nil, err
	}
	if booking.ReturnVehicleID != nil {
		if err := r.releaseSeats(tx, *booking.ReturnVehicleID, booking.ReturnSeats()); err != nil {
			return nil, err
		}
	}

	err = tx.QueryRow(`
		UPDATE bookings
		SET payment_status = 'canceled',
		    cancellation_reason = $2,
		    cancellation_time = NOW(),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING payment_status, cancellation_reason, cancellation_time, updated_at`,
		bookingID, reason,
	).Scan(&booking.PaymentStatus, &booking.CancellationReason, &booking.CancellationTime, &booking.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	return booking, nil
}

// releaseSeats returns seats to a vehicle's pool, capped at total capacity
func (r *BookingRepository) releaseSeats(tx *sqlx.Tx, vehicleID uuid.UUID, seats int) error {
	_, err := tx.Exec(`
		UPDATE vehicles
		SET remaining_seats = LEAST(total_seats, remaining_seats + $2),
		    is_available    = true,
		    is_booked       = false,
		    updated_at      = NOW()
		WHERE id = $1`, vehicleID, seats)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	return nil
}

// Delete removes a booking record. Reserved for administrative cleanup;
// passenger-facing flows cancel instead. Checked-in bookings are part of
// the travel record and can never be physically deleted.
func (r *BookingRepository) Delete(bookingID uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM bookings WHERE id = $1 AND NOT is_checked_in`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var checkedIn bool
		err := r.db.QueryRow(`SELECT is_checked_in FROM bookings WHERE id = $1`, bookingID).Scan(&checkedIn)
		if err == sql.ErrNoRows {
			return models.NewNotFoundError("booking", bookingID.String())
		}
		if err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}
		if checkedIn {
			return models.NewValidationError("booking", "checked-in bookings cannot be deleted")
		}
		return models.NewNotFoundError("booking", bookingID.String())
	}

	return nil
}
