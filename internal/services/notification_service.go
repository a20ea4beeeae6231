package services

import (
	"fmt"

	"github.com/parklink/booking-backend/internal/models"
	"github.com/parklink/booking-backend/pkg/mailer"
	"github.com/sirupsen/logrus"
)

// NotificationService sends transactional email for booking lifecycle
// events. Delivery is best effort: failures are logged and never propagate
// into the flow that triggered them.
type NotificationService struct {
	mailer mailer.Mailer
	logger *logrus.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(m mailer.Mailer, logger *logrus.Logger) *NotificationService {
	return &NotificationService{mailer: m, logger: logger}
}

// BookingCreated notifies the passenger that their reservation was placed
func (s *NotificationService) BookingCreated(user *models.User, booking *models.Booking) {
	code := ""
	if booking.BookingCode != nil {
		code = *booking.BookingCode
	}
	body := fmt.Sprintf(
		"Hello %s,\n\nYour booking has been placed.\n\nBooking code: %s\nTravel date: %s\nSeats: %d\nAmount due: %.2f\n\nPlease complete payment to confirm your seats.",
		user.FirstName, code, booking.TravelDate.Format("Mon, 02 Jan 2006"), booking.TotalSeats(), booking.Amount,
	)
	s.send(user.Email, "Your booking has been placed", body, booking)
}

// PaymentConfirmed notifies the passenger that their booking is confirmed
func (s *NotificationService) PaymentConfirmed(user *models.User, booking *models.Booking) {
	code := ""
	if booking.BookingCode != nil {
		code = *booking.BookingCode
	}
	body := fmt.Sprintf(
		"Hello %s,\n\nYour payment of %.2f has been confirmed.\n\nBooking code: %s\nTravel date: %s\n\nPresent your booking code or QR code at the park for check-in.",
		user.FirstName, booking.Amount, code, booking.TravelDate.Format("Mon, 02 Jan 2006"),
	)
	s.send(user.Email, "Payment confirmed", body, booking)
}

// BookingCheckedIn notifies the passenger of a successful check-in
func (s *NotificationService) BookingCheckedIn(user *models.User, booking *models.Booking) {
	body := fmt.Sprintf(
		"Hello %s,\n\nYou have been checked in for your trip on %s. Safe travels!",
		user.FirstName, booking.TravelDate.Format("Mon, 02 Jan 2006"),
	)
	s.send(user.Email, "Checked in", body, booking)
}

// BookingCheckedOut notifies the passenger that their trip is complete
func (s *NotificationService) BookingCheckedOut(user *models.User, booking *models.Booking) {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour trip is complete. Thank you for travelling with us.",
		user.FirstName,
	)
	s.send(user.Email, "Trip completed", body, booking)
}

// BookingCanceled notifies the passenger of a cancellation
func (s *NotificationService) BookingCanceled(user *models.User, booking *models.Booking) {
	reason := ""
	if booking.CancellationReason != nil {
		reason = *booking.CancellationReason
	}
	body := fmt.Sprintf(
		"Hello %s,\n\nYour booking for %s has been canceled.\nReason: %s",
		user.FirstName, booking.TravelDate.Format("Mon, 02 Jan 2006"), reason,
	)
	s.send(user.Email, "Booking canceled", body, booking)
}

// BookingUpdated notifies the passenger that their booking details changed
func (s *NotificationService) BookingUpdated(user *models.User, booking *models.Booking) {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour booking for %s has been updated. Seats: %d.",
		user.FirstName, booking.TravelDate.Format("Mon, 02 Jan 2006"), booking.TotalSeats(),
	)
	s.send(user.Email, "Booking updated", body, booking)
}

func (s *NotificationService) send(to, subject, body string, booking *models.Booking) {
	if err := s.mailer.Send(to, subject, body); err != nil {
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"subject":    subject,
			"error":      err.Error(),
		}).Warn("Failed to send notification email")
	}
}
