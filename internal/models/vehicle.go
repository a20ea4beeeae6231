package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle represents a fleet vehicle and its current scheduled trip.
// RemainingSeats is mutated only by the reservation transaction and by
// administrative capacity corrections; the invariant
// 0 <= remaining_seats <= total_seats always holds and is_booked implies
// remaining_seats == 0.
type Vehicle struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Model        string    `json:"model" db:"model"`
	Year         int       `json:"year" db:"year"`
	LicensePlate string    `json:"license_plate" db:"license_plate"`

	DeparturePark *uuid.UUID `json:"departure_park,omitempty" db:"departure_park_id"`
	ArrivalPark   *uuid.UUID `json:"arrival_park,omitempty" db:"arrival_park_id"`
	DepartureTime *time.Time `json:"departure_time,omitempty" db:"departure_time"`
	ArrivalTime   *time.Time `json:"arrival_time,omitempty" db:"arrival_time"`

	TotalSeats     int  `json:"total_seats" db:"total_seats"`
	RemainingSeats int  `json:"remaining_seats" db:"remaining_seats"`
	IsAvailable    bool `json:"is_available" db:"is_available"`
	IsBooked       bool `json:"is_booked" db:"is_booked"`
	IsDeparted     bool `json:"is_departed" db:"is_departed"`
	IsArrived      bool `json:"is_arrived" db:"is_arrived"`

	TripFare   float64  `json:"trip_fare" db:"trip_fare"`
	HourlyRate *float64 `json:"hourly_rate,omitempty" db:"hourly_rate"`
	DailyRate  *float64 `json:"daily_rate,omitempty" db:"daily_rate"`
	TripCount  int      `json:"trip_count" db:"trip_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ScopingPark is the park whose staff may manage this vehicle
func (v *Vehicle) ScopingPark() *uuid.UUID {
	return v.DeparturePark
}

// CanRotate reports whether the vehicle has completed its current trip and
// may have its schedule rotated onto the reverse route
func (v *Vehicle) CanRotate() bool {
	return v.DeparturePark != nil && v.ArrivalPark != nil && v.IsDeparted && v.IsArrived
}

// CreateVehicleRequest is the payload for registering a vehicle
type CreateVehicleRequest struct {
	Name         string  `json:"name" binding:"required"`
	Model        string  `json:"model" binding:"required"`
	Year         int     `json:"year" binding:"required"`
	LicensePlate string  `json:"license_plate" binding:"required"`
	TotalSeats   int     `json:"total_seats" binding:"required,min=1"`
	TripFare     float64 `json:"trip_fare" binding:"required"`

	DeparturePark *uuid.UUID `json:"departure_park,omitempty"`
	ArrivalPark   *uuid.UUID `json:"arrival_park,omitempty"`
	DepartureTime *time.Time `json:"departure_time,omitempty"`

	HourlyRate *float64 `json:"hourly_rate,omitempty"`
	DailyRate  *float64 `json:"daily_rate,omitempty"`
}

// UpdateVehicleRequest carries the mutable vehicle fields
type UpdateVehicleRequest struct {
	Name        *string  `json:"name,omitempty"`
	Model       *string  `json:"model,omitempty"`
	TotalSeats  *int     `json:"total_seats,omitempty"`
	TripFare    *float64 `json:"trip_fare,omitempty"`
	HourlyRate  *float64 `json:"hourly_rate,omitempty"`
	DailyRate   *float64 `json:"daily_rate,omitempty"`
	IsAvailable *bool    `json:"is_available,omitempty"`
	IsDeparted  *bool    `json:"is_departed,omitempty"`
	IsArrived   *bool    `json:"is_arrived,omitempty"`
}

// UpdateScheduleRequest assigns a vehicle to a new route and departure slot
type UpdateScheduleRequest struct {
	DeparturePark uuid.UUID `json:"departure_park" binding:"required"`
	ArrivalPark   uuid.UUID `json:"arrival_park" binding:"required"`
	DepartureTime time.Time `json:"departure_time" binding:"required"`
}
