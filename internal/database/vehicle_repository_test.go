package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vehicleTestColumns = []string{
	"id", "name", "model", "year", "license_plate",
	"departure_park_id", "arrival_park_id", "departure_time", "arrival_time",
	"total_seats", "remaining_seats", "is_available", "is_booked", "is_departed", "is_arrived",
	"trip_fare", "hourly_rate", "daily_rate", "trip_count",
	"created_at", "updated_at",
}

func vehicleRow(v *models.Vehicle) []driverValue {
	return []driverValue{
		v.ID.String(), v.Name, v.Model, v.Year, v.LicensePlate,
		uuidOrNil(v.DeparturePark), uuidOrNil(v.ArrivalPark), v.DepartureTime, v.ArrivalTime,
		v.TotalSeats, v.RemainingSeats, v.IsAvailable, v.IsBooked, v.IsDeparted, v.IsArrived,
		v.TripFare, v.HourlyRate, v.DailyRate, v.TripCount,
		v.CreatedAt, v.UpdatedAt,
	}
}

func testVehicle() *models.Vehicle {
	departure := uuid.New()
	arrival := uuid.New()
	departureTime := time.Now().Add(24 * time.Hour)
	arrivalTime := departureTime.Add(6 * time.Hour)
	return &models.Vehicle{
		ID:             uuid.New(),
		Name:           "Marcopolo 1",
		Model:          "Marcopolo G7",
		Year:           2022,
		LicensePlate:   "LAG-123-XY",
		DeparturePark:  &departure,
		ArrivalPark:    &arrival,
		DepartureTime:  &departureTime,
		ArrivalTime:    &arrivalTime,
		TotalSeats:     40,
		RemainingSeats: 25,
		IsAvailable:    true,
		TripFare:       100,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

func TestFindAvailable(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewVehicleRepository(db)

	t.Run("Earliest Departure Wins", func(t *testing.T) {
		vehicle := testVehicle()
		dayStart := time.Now().Truncate(24 * time.Hour)
		dayEnd := dayStart.Add(24 * time.Hour)

		mock.ExpectQuery(`SELECT (.+) FROM vehicles`).
			WithArgs(*vehicle.DeparturePark, *vehicle.ArrivalPark, dayStart, dayEnd, 3).
			WillReturnRows(sqlmock.NewRows(vehicleTestColumns).AddRow(vehicleRow(vehicle)...))

		found, err := repo.FindAvailable(*vehicle.DeparturePark, *vehicle.ArrivalPark, dayStart, dayEnd, 3)
		require.NoError(t, err)
		assert.Equal(t, vehicle.ID, found.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Vehicle Scheduled", func(t *testing.T) {
		source := uuid.New()
		destination := uuid.New()
		dayStart := time.Now().Truncate(24 * time.Hour)
		dayEnd := dayStart.Add(24 * time.Hour)

		mock.ExpectQuery(`SELECT (.+) FROM vehicles`).
			WithArgs(source, destination, dayStart, dayEnd, 5).
			WillReturnRows(sqlmock.NewRows(vehicleTestColumns))

		_, err := repo.FindAvailable(source, destination, dayStart, dayEnd, 5)
		require.Error(t, err)
		noSeats, ok := err.(*models.NoAvailabilityError)
		require.True(t, ok, "expected NoAvailabilityError, got %T", err)
		assert.Equal(t, "departure", noSeats.Leg)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRotateSchedule(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewVehicleRepository(db)

	t.Run("Success", func(t *testing.T) {
		vehicle := testVehicle()
		vehicle.IsDeparted = true
		vehicle.IsArrived = true

		rotated := testVehicle()
		rotated.ID = vehicle.ID
		rotated.DeparturePark = vehicle.ArrivalPark
		rotated.ArrivalPark = vehicle.DeparturePark
		rotated.RemainingSeats = rotated.TotalSeats
		rotated.TripCount = vehicle.TripCount + 1

		mock.ExpectQuery(`SELECT (.+) FROM vehicles WHERE id = \$1`).
			WithArgs(vehicle.ID).
			WillReturnRows(sqlmock.NewRows(vehicleTestColumns).AddRow(vehicleRow(vehicle)...))
		mock.ExpectExec(`UPDATE vehicles`).
			WithArgs(vehicle.ID, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM vehicles WHERE id = \$1`).
			WithArgs(vehicle.ID).
			WillReturnRows(sqlmock.NewRows(vehicleTestColumns).AddRow(vehicleRow(rotated)...))

		result, err := repo.RotateSchedule(vehicle.ID)
		require.NoError(t, err)
		assert.Equal(t, vehicle.ArrivalPark, result.DeparturePark)
		assert.Equal(t, vehicle.DeparturePark, result.ArrivalPark)
		assert.Equal(t, result.TotalSeats, result.RemainingSeats)
		assert.Equal(t, vehicle.TripCount+1, result.TripCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Trip Not Completed", func(t *testing.T) {
		vehicle := testVehicle()
		vehicle.IsDeparted = true
		vehicle.IsArrived = false

		mock.ExpectQuery(`SELECT (.+) FROM vehicles WHERE id = \$1`).
			WithArgs(vehicle.ID).
			WillReturnRows(sqlmock.NewRows(vehicleTestColumns).AddRow(vehicleRow(vehicle)...))

		_, err := repo.RotateSchedule(vehicle.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has not completed its current trip")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVehicleDelete(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewVehicleRepository(db)

	t.Run("Referenced By Bookings", func(t *testing.T) {
		vehicleID := uuid.New()

		mock.ExpectExec(`DELETE FROM vehicles`).
			WithArgs(vehicleID).
			WillReturnError(fmt.Errorf("pq: update or delete on table \"vehicles\" violates foreign key constraint"))

		err := repo.Delete(vehicleID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has bookings")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		vehicleID := uuid.New()

		mock.ExpectExec(`DELETE FROM vehicles`).
			WithArgs(vehicleID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(vehicleID)
		require.Error(t, err)
		_, ok := err.(*models.NotFoundError)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
