package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TripType classifies a booking
type TripType string

const (
	TripOneWay TripType = "one_way"
	TripRound  TripType = "round"
	TripHourly TripType = "hourly"
	TripDaily  TripType = "daily"
)

// IsValid reports whether the trip type is one of the known types
func (t TripType) IsValid() bool {
	switch t {
	case TripOneWay, TripRound, TripHourly, TripDaily:
		return true
	}
	return false
}

// PickupType indicates where the passenger is collected
type PickupType string

const (
	PickupHome PickupType = "home"
	PickupPark PickupType = "park"
)

// BookingPaymentStatus is the payment lifecycle of a booking
type BookingPaymentStatus string

const (
	BookingPaymentPending   BookingPaymentStatus = "pending"
	BookingPaymentConfirmed BookingPaymentStatus = "confirmed"
	BookingPaymentCanceled  BookingPaymentStatus = "canceled"
)

// Booking represents a trip reservation. Created only through the
// reservation transaction; the booking code is unique and is invalidated
// (set to NULL) at check-out.
type Booking struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	PassengerID     uuid.UUID  `json:"passenger_id" db:"passenger_id"`
	VehicleID       uuid.UUID  `json:"vehicle_id" db:"vehicle_id"`
	ReturnVehicleID *uuid.UUID `json:"return_vehicle_id,omitempty" db:"return_vehicle_id"`
	TripType        TripType   `json:"trip_type" db:"trip_type"`

	SourcePark      uuid.UUID `json:"source_park" db:"source_park_id"`
	DestinationPark uuid.UUID `json:"destination_park" db:"destination_park_id"`

	TravelDate time.Time  `json:"travel_date" db:"travel_date"`
	ReturnDate *time.Time `json:"return_date,omitempty" db:"return_date"`

	PickupType    PickupType `json:"pickup_type" db:"pickup_type"`
	PickupAddress *string    `json:"pickup_address,omitempty" db:"pickup_address"`

	AdultCount          int `json:"adult_count" db:"adult_count"`
	ChildrenCount       int `json:"children_count" db:"children_count"`
	ReturnAdultCount    int `json:"return_adult_count" db:"return_adult_count"`
	ReturnChildrenCount int `json:"return_children_count" db:"return_children_count"`

	LuggageCount    int     `json:"luggage_count" db:"luggage_count"`
	SpecialRequests *string `json:"special_requests,omitempty" db:"special_requests"`

	Amount        float64              `json:"amount" db:"amount"`
	PaymentStatus BookingPaymentStatus `json:"payment_status" db:"payment_status"`
	IsPaid        bool                 `json:"is_paid" db:"is_paid"`

	BookingCode *string `json:"booking_code,omitempty" db:"booking_code"`
	QRCode      []byte  `json:"qr_code,omitempty" db:"qr_code"`

	IsCheckedIn  bool       `json:"is_checked_in" db:"is_checked_in"`
	IsCheckedOut bool       `json:"is_checked_out" db:"is_checked_out"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty" db:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty" db:"check_out_time"`

	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancellationTime   *time.Time `json:"cancellation_time,omitempty" db:"cancellation_time"`

	BookingDate time.Time `json:"booking_date" db:"booking_date"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Status derives the presentation status from the lifecycle flags
func (b *Booking) Status() string {
	switch {
	case b.IsCheckedOut:
		return "completed"
	case b.IsCheckedIn:
		return "in_progress"
	case b.PaymentStatus == BookingPaymentConfirmed:
		return "confirmed"
	case b.PaymentStatus == BookingPaymentCanceled:
		return "canceled"
	default:
		return "pending"
	}
}

// OwnerID identifies the passenger who owns this booking
func (b *Booking) OwnerID() uuid.UUID {
	return b.PassengerID
}

// ScopingPark is the park whose staff may operate on this booking
func (b *Booking) ScopingPark() *uuid.UUID {
	return &b.SourcePark
}

// IsBookingCodeValid reports whether the booking code can still be presented
func (b *Booking) IsBookingCodeValid() bool {
	return b.BookingCode != nil && *b.BookingCode != "" && !b.IsCheckedOut
}

// TotalSeats is the seat count for the departing leg
func (b *Booking) TotalSeats() int {
	return b.AdultCount + b.ChildrenCount
}

// ReturnSeats is the seat count for the return leg
func (b *Booking) ReturnSeats() int {
	return b.ReturnAdultCount + b.ReturnChildrenCount
}

// CreateBookingRequest is the payload for the reservation operation
type CreateBookingRequest struct {
	TripType        TripType   `json:"trip_type" binding:"required"`
	SourcePark      uuid.UUID  `json:"source_park" binding:"required"`
	DestinationPark uuid.UUID  `json:"destination_park" binding:"required"`
	TravelDate      time.Time  `json:"travel_date" binding:"required"`
	ReturnDate      *time.Time `json:"return_date,omitempty"`

	PickupType    PickupType `json:"pickup_type" binding:"required"`
	PickupAddress string     `json:"pickup_address,omitempty"`

	AdultCount          int `json:"adult_count"`
	ChildrenCount       int `json:"children_count"`
	ReturnAdultCount    int `json:"return_adult_count"`
	ReturnChildrenCount int `json:"return_children_count"`

	LuggageCount    int    `json:"luggage_count"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// Validate checks request consistency. Checks run in a fixed order so each
// inconsistency is reported against the field that caused it.
func (r *CreateBookingRequest) Validate(now time.Time) error {
	if !r.TripType.IsValid() {
		return NewValidationError("trip_type", "unknown trip type")
	}

	if r.TripType == TripRound {
		if r.ReturnDate == nil {
			return NewValidationError("return_date", "return date is required for round trips")
		}
		if !r.ReturnDate.After(r.TravelDate) {
			return NewValidationError("return_date", "return date must be after travel date")
		}
		if r.ReturnAdultCount+r.ReturnChildrenCount <= 0 {
			return NewValidationError("return_adult_count", "return trip must have at least one passenger")
		}
	}

	if r.PickupType == PickupHome && strings.TrimSpace(r.PickupAddress) == "" {
		return NewValidationError("pickup_address", "pickup address is required for home pickup")
	}

	if r.TravelDate.Before(now) {
		return NewValidationError("travel_date", "travel date cannot be in the past")
	}

	if r.AdultCount+r.ChildrenCount <= 0 {
		return NewValidationError("adult_count", "booking must have at least one passenger")
	}

	return nil
}

// TotalSeats is the requested seat count for the departing leg
func (r *CreateBookingRequest) TotalSeats() int {
	return r.AdultCount + r.ChildrenCount
}

// ReturnSeats is the requested seat count for the return leg
func (r *CreateBookingRequest) ReturnSeats() int {
	if r.TripType != TripRound {
		return 0
	}
	return r.ReturnAdultCount + r.ReturnChildrenCount
}

// Fare computes the booking amount from the vehicle's per-trip adult fare.
// Children travel at half fare; round trips pay both legs.
func (r *CreateBookingRequest) Fare(adultFare float64) float64 {
	amount := float64(r.AdultCount)*adultFare + float64(r.ChildrenCount)*0.5*adultFare
	if r.TripType == TripRound {
		amount *= 2
	}
	return amount
}

// UpdateBookingRequest carries the fields that may change before check-in
type UpdateBookingRequest struct {
	PickupAddress       *string `json:"pickup_address,omitempty"`
	AdultCount          *int    `json:"adult_count,omitempty"`
	ChildrenCount       *int    `json:"children_count,omitempty"`
	ReturnAdultCount    *int    `json:"return_adult_count,omitempty"`
	ReturnChildrenCount *int    `json:"return_children_count,omitempty"`
	LuggageCount        *int    `json:"luggage_count,omitempty"`
	SpecialRequests     *string `json:"special_requests,omitempty"`
}

// CancelBookingRequest is the payload for cancellation
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}
