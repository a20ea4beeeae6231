package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/database"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ReservationService orchestrates the booking lifecycle: vehicle selection,
// the seat reservation transaction, check-in and check-out, and
// cancellation.
type ReservationService struct {
	bookings *database.BookingRepository
	vehicles *database.VehicleRepository
	parks    *database.ParkRepository
	notifier *NotificationService
	logger   *logrus.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	bookings *database.BookingRepository,
	vehicles *database.VehicleRepository,
	parks *database.ParkRepository,
	notifier *NotificationService,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		bookings: bookings,
		vehicles: vehicles,
		parks:    parks,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateBooking validates the request, selects the earliest departing
// vehicle with capacity for each leg, and runs the reservation transaction.
// Both legs are selected before any seat is taken, so a round trip either
// books both legs or books nothing.
func (s *ReservationService) CreateBooking(passenger *models.User, req *models.CreateBookingRequest) (*models.Booking, error) {
	if err := req.Validate(time.Now()); err != nil {
		return nil, err
	}

	if req.SourcePark == req.DestinationPark {
		return nil, models.NewValidationError("destination_park", "destination must differ from source")
	}
	if _, err := s.parks.GetByID(req.SourcePark); err != nil {
		return nil, err
	}
	if _, err := s.parks.GetByID(req.DestinationPark); err != nil {
		return nil, err
	}

	dayStart, dayEnd := dayWindow(req.TravelDate)
	vehicle, err := s.vehicles.FindAvailable(req.SourcePark, req.DestinationPark, dayStart, dayEnd, req.TotalSeats())
	if err != nil {
		return nil, err
	}

	var returnVehicleID *uuid.UUID
	if req.TripType == models.TripRound {
		returnStart, returnEnd := dayWindow(*req.ReturnDate)
		returnVehicle, err := s.vehicles.FindAvailable(req.DestinationPark, req.SourcePark, returnStart, returnEnd, req.ReturnSeats())
		if err != nil {
			if _, ok := err.(*models.NoAvailabilityError); ok {
				return nil, models.NewNoAvailabilityError("return", "no return vehicle with enough seats is scheduled for the requested date")
			}
			return nil, err
		}
		returnVehicleID = &returnVehicle.ID
	}

	booking := &models.Booking{
		PassengerID:         passenger.ID,
		VehicleID:           vehicle.ID,
		ReturnVehicleID:     returnVehicleID,
		TripType:            req.TripType,
		SourcePark:          req.SourcePark,
		DestinationPark:     req.DestinationPark,
		TravelDate:          req.TravelDate,
		ReturnDate:          req.ReturnDate,
		PickupType:          req.PickupType,
		AdultCount:          req.AdultCount,
		ChildrenCount:       req.ChildrenCount,
		ReturnAdultCount:    req.ReturnAdultCount,
		ReturnChildrenCount: req.ReturnChildrenCount,
		LuggageCount:        req.LuggageCount,
		Amount:              req.Fare(vehicle.TripFare),
	}
	if req.PickupAddress != "" {
		booking.PickupAddress = &req.PickupAddress
	}
	if req.SpecialRequests != "" {
		booking.SpecialRequests = &req.SpecialRequests
	}

	if err := s.bookings.Reserve(booking); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"vehicle_id": booking.VehicleID,
		"seats":      booking.TotalSeats(),
		"amount":     booking.Amount,
	}).Info("Booking reserved")

	s.notifier.BookingCreated(passenger, booking)

	return booking, nil
}

// CheckInByCode checks a passenger in against their booking code. Check-in
// is only allowed on the travel date of a paid booking.
func (s *ReservationService) CheckInByCode(code string, now time.Time) (*models.Booking, error) {
	booking, err := s.bookings.GetByCode(code)
	if err != nil {
		return nil, err
	}

	if booking.PaymentStatus != models.BookingPaymentConfirmed {
		return nil, models.NewValidationError("booking", "booking payment is not confirmed")
	}
	if !sameDay(booking.TravelDate, now) {
		return nil, models.NewValidationError("booking", "check-in is only allowed on the travel date")
	}

	if err := s.bookings.CheckIn(booking.ID); err != nil {
		return nil, err
	}

	s.logger.WithField("booking_id", booking.ID).Info("Passenger checked in")

	return s.bookings.GetByID(booking.ID)
}

// CheckOut completes a checked-in booking and invalidates its code
func (s *ReservationService) CheckOut(bookingID uuid.UUID) (*models.Booking, error) {
	if err := s.bookings.CheckOut(bookingID); err != nil {
		return nil, err
	}

	s.logger.WithField("booking_id", bookingID).Info("Passenger checked out")

	return s.bookings.GetByID(bookingID)
}

// Cancel cancels a booking and releases its seats. A non-blank reason is
// required for the travel record.
func (s *ReservationService) Cancel(bookingID uuid.UUID, reason string) (*models.Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, models.NewValidationError("reason", "cancellation reason is required")
	}

	booking, err := s.bookings.Cancel(bookingID, reason)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"reason":     reason,
	}).Info("Booking canceled")

	return booking, nil
}

// dayWindow returns the half-open day interval containing t
func dayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.Add(24 * time.Hour)
}

// sameDay reports whether two instants fall on the same calendar day
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
