package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentTestColumns = []string{
	"id", "booking_id", "user_id", "amount", "reference", "verified", "created_at", "updated_at",
}

func paymentRow(p *models.Payment) []driverValue {
	return []driverValue{
		p.ID.String(), p.BookingID.String(), p.UserID.String(),
		p.Amount, p.Reference, p.Verified, p.CreatedAt, p.UpdatedAt,
	}
}

func testPayment() *models.Payment {
	reference := "ref_abc123"
	return &models.Payment{
		ID:        uuid.New(),
		BookingID: uuid.New(),
		UserID:    uuid.New(),
		Amount:    250,
		Reference: &reference,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestCreatePayment(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewPaymentRepository(db.DB)
		payment := testPayment()
		payment.Reference = nil
		now := time.Now()

		mock.ExpectQuery(`INSERT INTO payments`).
			WithArgs(sqlmock.AnyArg(), payment.BookingID, payment.UserID, payment.Amount).
			WillReturnRows(sqlmock.NewRows([]string{"verified", "created_at", "updated_at"}).
				AddRow(false, now, now))

		err := repo.Create(payment)
		require.NoError(t, err)
		assert.False(t, payment.Verified)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Booking", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewPaymentRepository(db.DB)
		payment := testPayment()

		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnError(errDuplicateKey)

		err := repo.Create(payment)
		require.Error(t, err)
		_, ok := err.(*models.ValidationError)
		assert.True(t, ok, "expected ValidationError, got %T", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkVerified(t *testing.T) {
	t.Run("Verifies Payment And Confirms Booking", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewPaymentRepository(db.DB)
		payment := testPayment()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE id = \$1 FOR UPDATE`).
			WithArgs(payment.ID).
			WillReturnRows(sqlmock.NewRows(paymentTestColumns).AddRow(paymentRow(payment)...))
		mock.ExpectQuery(`UPDATE payments SET verified = true`).
			WithArgs(payment.ID).
			WillReturnRows(sqlmock.NewRows([]string{"verified", "updated_at"}).AddRow(true, now))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(payment.BookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		verified, err := repo.MarkVerified(payment.ID)
		require.NoError(t, err)
		assert.True(t, verified.Verified)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Verified Is A No-Op", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewPaymentRepository(db.DB)
		payment := testPayment()
		payment.Verified = true

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE id = \$1 FOR UPDATE`).
			WithArgs(payment.ID).
			WillReturnRows(sqlmock.NewRows(paymentTestColumns).AddRow(paymentRow(payment)...))
		mock.ExpectRollback()

		verified, err := repo.MarkVerified(payment.ID)
		require.NoError(t, err)
		assert.True(t, verified.Verified)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Payment", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewPaymentRepository(db.DB)
		paymentID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE id = \$1 FOR UPDATE`).
			WithArgs(paymentID).
			WillReturnRows(sqlmock.NewRows(paymentTestColumns))
		mock.ExpectRollback()

		_, err := repo.MarkVerified(paymentID)
		require.Error(t, err)
		_, ok := err.(*models.NotFoundError)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetByReference(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewPaymentRepository(db.DB)

	t.Run("Success", func(t *testing.T) {
		payment := testPayment()

		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE reference = \$1`).
			WithArgs(*payment.Reference).
			WillReturnRows(sqlmock.NewRows(paymentTestColumns).AddRow(paymentRow(payment)...))

		found, err := repo.GetByReference(*payment.Reference)
		require.NoError(t, err)
		assert.Equal(t, payment.ID, found.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Reference", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE reference = \$1`).
			WithArgs("ref_missing").
			WillReturnRows(sqlmock.NewRows(paymentTestColumns))

		_, err := repo.GetByReference("ref_missing")
		require.Error(t, err)
		_, ok := err.(*models.NotFoundError)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
