package database

import (
	"database/sql/driver"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingTestColumns = []string{
	"id", "passenger_id", "vehicle_id", "return_vehicle_id", "trip_type",
	"source_park_id", "destination_park_id", "travel_date", "return_date",
	"pickup_type", "pickup_address",
	"adult_count", "children_count", "return_adult_count", "return_children_count",
	"luggage_count", "special_requests",
	"amount", "payment_status", "is_paid",
	"booking_code", "qr_code",
	"is_checked_in", "is_checked_out", "check_in_time", "check_out_time",
	"cancellation_reason", "cancellation_time",
	"booking_date", "updated_at",
}

func bookingRow(booking *models.Booking) []driverValue {
	return []driverValue{
		booking.ID.String(), booking.PassengerID.String(), booking.VehicleID.String(),
		uuidOrNil(booking.ReturnVehicleID), string(booking.TripType),
		booking.SourcePark.String(), booking.DestinationPark.String(), booking.TravelDate, booking.ReturnDate,
		string(booking.PickupType), booking.PickupAddress,
		booking.AdultCount, booking.ChildrenCount, booking.ReturnAdultCount, booking.ReturnChildrenCount,
		booking.LuggageCount, booking.SpecialRequests,
		booking.Amount, string(booking.PaymentStatus), booking.IsPaid,
		booking.BookingCode, booking.QRCode,
		booking.IsCheckedIn, booking.IsCheckedOut, booking.CheckInTime, booking.CheckOutTime,
		booking.CancellationReason, booking.CancellationTime,
		booking.BookingDate, booking.UpdatedAt,
	}
}

type driverValue = driver.Value

func uuidOrNil(id *uuid.UUID) driverValue {
	if id == nil {
		return nil
	}
	return id.String()
}

func testBooking() *models.Booking {
	code := "AB12CD34"
	return &models.Booking{
		ID:              uuid.New(),
		PassengerID:     uuid.New(),
		VehicleID:       uuid.New(),
		TripType:        models.TripOneWay,
		SourcePark:      uuid.New(),
		DestinationPark: uuid.New(),
		TravelDate:      time.Now().Add(48 * time.Hour),
		PickupType:      models.PickupPark,
		AdultCount:      2,
		ChildrenCount:   1,
		Amount:          250,
		PaymentStatus:   models.BookingPaymentPending,
		BookingCode:     &code,
		QRCode:          []byte("png"),
		BookingDate:     time.Now(),
		UpdatedAt:       time.Now(),
	}
}

func newTestBookingRepo(t *testing.T) (*BookingRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := newTestDB(t)
	repo := NewBookingRepository(db.DB)
	repo.qrEncode = func(code string) ([]byte, error) {
		return []byte("png:" + code), nil
	}
	return repo, mock
}

func TestGenerateBookingCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := GenerateBookingCode()
		require.NoError(t, err)
		assert.Len(t, code, 8)
		for _, ch := range code {
			assert.Contains(t, bookingCodeCharset, string(ch))
		}
		seen[code] = true
	}
	// 100 draws from a 36^8 space should not collide
	assert.Greater(t, len(seen), 90)
}

func TestReserve(t *testing.T) {
	t.Run("Success One Way", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		booking := testBooking()
		booking.BookingCode = nil
		booking.QRCode = nil
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT remaining_seats FROM vehicles WHERE id = \$1 FOR UPDATE`).
			WithArgs(booking.VehicleID).
			WillReturnRows(sqlmock.NewRows([]string{"remaining_seats"}).AddRow(10))
		mock.ExpectExec(`UPDATE vehicles`).
			WithArgs(booking.VehicleID, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"payment_status", "is_paid", "booking_date", "updated_at"}).
				AddRow("pending", false, now, now))
		mock.ExpectCommit()

		err := repo.Reserve(booking)
		require.NoError(t, err)
		require.NotNil(t, booking.BookingCode)
		assert.Len(t, *booking.BookingCode, 8)
		assert.Equal(t, []byte("png:"+*booking.BookingCode), booking.QRCode)
		assert.Equal(t, models.BookingPaymentPending, booking.PaymentStatus)
		assert.False(t, booking.IsPaid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Concurrent Seat Exhaustion", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		booking := testBooking()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT remaining_seats FROM vehicles WHERE id = \$1 FOR UPDATE`).
			WithArgs(booking.VehicleID).
			WillReturnRows(sqlmock.NewRows([]string{"remaining_seats"}).AddRow(2))
		mock.ExpectRollback()

		err := repo.Reserve(booking)
		require.Error(t, err)
		exhausted, ok := err.(*models.ConcurrentExhaustionError)
		require.True(t, ok, "expected ConcurrentExhaustionError, got %T", err)
		assert.Equal(t, booking.VehicleID.String(), exhausted.VehicleID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Round Trip Return Leg Failure Rolls Back Departure Seats", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		booking := testBooking()
		booking.TripType = models.TripRound
		returnVehicle := uuid.New()
		booking.ReturnVehicleID = &returnVehicle
		returnDate := booking.TravelDate.Add(72 * time.Hour)
		booking.ReturnDate = &returnDate
		booking.ReturnAdultCount = 2

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT remaining_seats FROM vehicles WHERE id = \$1 FOR UPDATE`).
			WithArgs(booking.VehicleID).
			WillReturnRows(sqlmock.NewRows([]string{"remaining_seats"}).AddRow(5))
		mock.ExpectExec(`UPDATE vehicles`).
			WithArgs(booking.VehicleID, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT remaining_seats FROM vehicles WHERE id = \$1 FOR UPDATE`).
			WithArgs(returnVehicle).
			WillReturnRows(sqlmock.NewRows([]string{"remaining_seats"}).AddRow(1))
		mock.ExpectRollback()

		err := repo.Reserve(booking)
		require.Error(t, err)
		_, ok := err.(*models.ConcurrentExhaustionError)
		assert.True(t, ok, "expected ConcurrentExhaustionError, got %T", err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Regenerates Colliding Booking Code", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		booking := testBooking()
		booking.BookingCode = nil
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT remaining_seats FROM vehicles WHERE id = \$1 FOR UPDATE`).
			WithArgs(booking.VehicleID).
			WillReturnRows(sqlmock.NewRows([]string{"remaining_seats"}).AddRow(10))
		mock.ExpectExec(`UPDATE vehicles`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"payment_status", "is_paid", "booking_date", "updated_at"}).
				AddRow("pending", false, now, now))
		mock.ExpectCommit()

		err := repo.Reserve(booking)
		require.NoError(t, err)
		require.NotNil(t, booking.BookingCode)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insert Failure Rolls Back", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		booking := testBooking()
		booking.BookingCode = nil

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT remaining_seats FROM vehicles WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"remaining_seats"}).AddRow(10))
		mock.ExpectExec(`UPDATE vehicles`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(fmt.Errorf("database error"))
		mock.ExpectRollback()

		err := repo.Reserve(booking)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert booking")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCheckIn(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CheckIn(bookingID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Checked In", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.CheckIn(bookingID)
		require.Error(t, err)
		_, ok := err.(*models.ValidationError)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCheckOut(t *testing.T) {
	t.Run("Success Nulls Booking Code", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE bookings SET is_checked_out = true, check_out_time = NOW\(\), booking_code = NULL`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CheckOut(bookingID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Check Out Before Check In", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		bookingID := uuid.New()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.CheckOut(bookingID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checked in before check-out")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancel(t *testing.T) {
	t.Run("Releases Seats And Cancels", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		booking := testBooking()
		now := time.Now()
		reason := "change of plans"

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1 FOR UPDATE`).
			WithArgs(booking.ID).
			WillReturnRows(sqlmock.NewRows(bookingTestColumns).AddRow(bookingRow(booking)...))
		mock.ExpectExec(`UPDATE vehicles`).
			WithArgs(booking.VehicleID, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs(booking.ID, reason).
			WillReturnRows(sqlmock.NewRows([]string{"payment_status", "cancellation_reason", "cancellation_time", "updated_at"}).
				AddRow("canceled", reason, now, now))
		mock.ExpectCommit()

		canceled, err := repo.Cancel(booking.ID, reason)
		require.NoError(t, err)
		assert.Equal(t, models.BookingPaymentCanceled, canceled.PaymentStatus)
		require.NotNil(t, canceled.CancellationReason)
		assert.Equal(t, reason, *canceled.CancellationReason)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Checked In Bookings Cannot Be Canceled", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		booking := testBooking()
		booking.IsCheckedIn = true

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1 FOR UPDATE`).
			WithArgs(booking.ID).
			WillReturnRows(sqlmock.NewRows(bookingTestColumns).AddRow(bookingRow(booking)...))
		mock.ExpectRollback()

		_, err := repo.Cancel(booking.ID, "too late")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checked-in bookings cannot be canceled")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Canceled", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		booking := testBooking()
		booking.PaymentStatus = models.BookingPaymentCanceled

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1 FOR UPDATE`).
			WithArgs(booking.ID).
			WillReturnRows(sqlmock.NewRows(bookingTestColumns).AddRow(bookingRow(booking)...))
		mock.ExpectRollback()

		_, err := repo.Cancel(booking.ID, "again")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already canceled")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetByCode(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		booking := testBooking()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE booking_code = \$1`).
			WithArgs(*booking.BookingCode).
			WillReturnRows(sqlmock.NewRows(bookingTestColumns).AddRow(bookingRow(booking)...))

		found, err := repo.GetByCode(*booking.BookingCode)
		require.NoError(t, err)
		assert.Equal(t, booking.ID, found.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Code", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE booking_code = \$1`).
			WithArgs("ZZZZZZZZ").
			WillReturnRows(sqlmock.NewRows(bookingTestColumns))

		_, err := repo.GetByCode("ZZZZZZZZ")
		require.Error(t, err)
		_, ok := err.(*models.NotFoundError)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteBooking(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		bookingID := uuid.New()

		mock.ExpectExec(`DELETE FROM bookings WHERE id = \$1 AND NOT is_checked_in`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(bookingID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Checked In Booking Survives", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		bookingID := uuid.New()

		mock.ExpectExec(`DELETE FROM bookings WHERE id = \$1 AND NOT is_checked_in`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT is_checked_in FROM bookings WHERE id = \$1`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{"is_checked_in"}).AddRow(true))

		err := repo.Delete(bookingID)
		require.Error(t, err)
		validationErr, ok := err.(*models.ValidationError)
		require.True(t, ok, "expected ValidationError, got %T", err)
		assert.Contains(t, validationErr.Message, "cannot be deleted")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		repo, mock := newTestBookingRepo(t)
		bookingID := uuid.New()

		mock.ExpectExec(`DELETE FROM bookings WHERE id = \$1 AND NOT is_checked_in`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT is_checked_in FROM bookings WHERE id = \$1`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{"is_checked_in"}))

		err := repo.Delete(bookingID)
		require.Error(t, err)
		_, ok := err.(*models.NotFoundError)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
