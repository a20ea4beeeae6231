package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/models"
)

// defaultTripDuration is the scheduled gap between departure and arrival
// when rotating or rescheduling a vehicle.
const defaultTripDuration = 6 * time.Hour

const vehicleColumns = `
	id, name, model, year, license_plate,
	departure_park_id, arrival_park_id, departure_time, arrival_time,
	total_seats, remaining_seats, is_available, is_booked, is_departed, is_arrived,
	trip_fare, hourly_rate, daily_rate, trip_count,
	created_at, updated_at`

// VehicleRepository handles database operations for the vehicles table
type VehicleRepository struct {
	db DB
}

// NewVehicleRepository creates a new VehicleRepository
func NewVehicleRepository(db DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create registers a new vehicle. A vehicle starts with a full seat pool
// and is available when a route is assigned.
func (r *VehicleRepository) Create(vehicle *models.Vehicle) error {
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}

	if vehicle.DepartureTime != nil && vehicle.ArrivalTime == nil {
		arrival := vehicle.DepartureTime.Add(defaultTripDuration)
		vehicle.ArrivalTime = &arrival
	}

	query := `
		INSERT INTO vehicles (
			id, name, model, year, license_plate,
			departure_park_id, arrival_park_id, departure_time, arrival_time,
			total_seats, remaining_seats, is_available,
			trip_fare, hourly_rate, daily_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10, $11, $12, $13, $14)
		RETURNING is_available, is_booked, is_departed, is_arrived, trip_count, created_at, updated_at`

	err := r.db.QueryRow(
		query,
		vehicle.ID, vehicle.Name, vehicle.Model, vehicle.Year, vehicle.LicensePlate,
		vehicle.DeparturePark, vehicle.ArrivalPark, vehicle.DepartureTime, vehicle.ArrivalTime,
		vehicle.TotalSeats, vehicle.DeparturePark != nil,
		vehicle.TripFare, vehicle.HourlyRate, vehicle.DailyRate,
	).Scan(
		&vehicle.IsAvailable, &vehicle.IsBooked, &vehicle.IsDeparted, &vehicle.IsArrived,
		&vehicle.TripCount, &vehicle.CreatedAt, &vehicle.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return models.NewValidationError("license_plate", "a vehicle with this license plate already exists")
		}
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	vehicle.RemainingSeats = vehicle.TotalSeats

	return nil
}

// GetByID retrieves a vehicle by ID
func (r *VehicleRepository) GetByID(vehicleID uuid.UUID) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	err := r.db.Get(vehicle, query, vehicleID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("vehicle", vehicleID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vehicle: %w", err)
	}

	return vehicle, nil
}

// List retrieves all vehicles, optionally filtered to a departure park
func (r *VehicleRepository) List(parkID *uuid.UUID) ([]models.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE ($1::uuid IS NULL OR departure_park_id = $1)
		ORDER BY departure_time NULLS LAST, name`

	vehicles := []models.Vehicle{}
	if err := r.db.Select(&vehicles, query, parkID); err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	return vehicles, nil
}

// FindAvailable selects the earliest departing vehicle on the route with
// enough remaining seats on the given travel day
func (r *VehicleRepository) FindAvailable(sourcePark, destinationPark uuid.UUID, dayStart, dayEnd time.Time, seats int) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE departure_park_id = $1
		  AND arrival_park_id = $2
		  AND departure_time >= $3
		  AND departure_time < $4
		  AND is_available
		  AND NOT is_departed
		  AND remaining_seats >= $5
		ORDER BY departure_time ASC
		LIMIT 1`

	err := r.db.Get(vehicle, query, sourcePark, destinationPark, dayStart, dayEnd, seats)
	if err == sql.ErrNoRows {
		return nil, models.NewNoAvailabilityError("departure", "no vehicle with enough seats is scheduled on this route for the requested date")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find available vehicle: %w", err)
	}

	return vehicle, nil
}

// Update applies the mutable fields of a vehicle. Raising total_seats also
// raises remaining_seats by the same delta; remaining_seats never exceeds
// total_seats or drops below zero.
func (r *VehicleRepository) Update(vehicleID uuid.UUID, req *models.UpdateVehicleRequest) (*models.Vehicle, error) {
	query := `
		UPDATE vehicles
		SET name            = COALESCE($2, name),
		    model           = COALESCE($3, model),
		    remaining_seats = GREATEST(0, LEAST(COALESCE($4, total_seats), remaining_seats + COALESCE($4, total_seats) - total_seats)),
		    total_seats     = COALESCE($4, total_seats),
		    trip_fare       = COALESCE($5, trip_fare),
		    hourly_rate     = COALESCE($6, hourly_rate),
		    daily_rate      = COALESCE($7, daily_rate),
		    is_available    = COALESCE($8, is_available),
		    is_departed     = COALESCE($9, is_departed),
		    is_arrived      = COALESCE($10, is_arrived),
		    updated_at      = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(
		query,
		vehicleID, req.Name, req.Model, req.TotalSeats, req.TripFare,
		req.HourlyRate, req.DailyRate, req.IsAvailable, req.IsDeparted, req.IsArrived,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, models.NewNotFoundError("vehicle", vehicleID.String())
	}

	return r.GetByID(vehicleID)
}

// UpdateSchedule assigns a vehicle to a route and departure slot. The
// arrival time is scheduled a fixed trip duration after departure and the
// trip lifecycle flags are reset.
func (r *VehicleRepository) UpdateSchedule(vehicleID uuid.UUID, req *models.UpdateScheduleRequest) (*models.Vehicle, error) {
	arrivalTime := req.DepartureTime.Add(defaultTripDuration)

	query := `
		UPDATE vehicles
		SET departure_park_id = $2,
		    arrival_park_id   = $3,
		    departure_time    = $4,
		    arrival_time      = $5,
		    remaining_seats   = total_seats,
		    is_available      = true,
		    is_booked         = false,
		    is_departed       = false,
		    is_arrived        = false,
		    updated_at        = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, vehicleID, req.DeparturePark, req.ArrivalPark, req.DepartureTime, arrivalTime)
	if err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, models.NewNotFoundError("vehicle", vehicleID.String())
	}

	return r.GetByID(vehicleID)
}

// RotateSchedule swaps the vehicle onto the reverse route after a completed
// trip. Requires the vehicle to be both departed and arrived; the new
// departure is scheduled a fixed trip duration after the previous arrival,
// the seat pool is refilled and the trip counter is incremented.
func (r *VehicleRepository) RotateSchedule(vehicleID uuid.UUID) (*models.Vehicle, error) {
	vehicle, err := r.GetByID(vehicleID)
	if err != nil {
		return nil, err
	}

	if !vehicle.CanRotate() {
		return nil, models.NewValidationError("vehicle", "vehicle has not completed its current trip")
	}

	newDeparture := time.Now().Add(defaultTripDuration)
	if vehicle.ArrivalTime != nil && vehicle.ArrivalTime.After(time.Now()) {
		newDeparture = vehicle.ArrivalTime.Add(defaultTripDuration)
	}
	newArrival := newDeparture.Add(defaultTripDuration)

	query := `
		UPDATE vehicles
		SET departure_park_id = arrival_park_id,
		    arrival_park_id   = departure_park_id,
		    departure_time    = $2,
		    arrival_time      = $3,
		    remaining_seats   = total_seats,
		    is_available      = true,
		    is_booked         = false,
		    is_departed       = false,
		    is_arrived        = false,
		    trip_count        = trip_count + 1,
		    updated_at        = NOW()
		WHERE id = $1`

	if _, err := r.db.Exec(query, vehicleID, newDeparture, newArrival); err != nil {
		return nil, fmt.Errorf("failed to rotate schedule: %w", err)
	}

	return r.GetByID(vehicleID)
}

// Delete removes a vehicle. Vehicles referenced by bookings are protected
// by the foreign key and must be retired via availability instead.
func (r *VehicleRepository) Delete(vehicleID uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM vehicles WHERE id = $1`, vehicleID)
	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return models.NewValidationError("vehicle", "vehicle has bookings and cannot be deleted")
		}
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("vehicle", vehicleID.String())
	}

	return nil
}
