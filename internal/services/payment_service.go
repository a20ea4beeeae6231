package services

import (
	"github.com/parklink/booking-backend/internal/database"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/parklink/booking-backend/pkg/paystack"
	"github.com/sirupsen/logrus"
)

// PaymentGateway is the slice of the payment provider the service needs
type PaymentGateway interface {
	Initialize(email string, amount float64) (*paystack.Transaction, error)
	Verify(reference string) (bool, error)
}

// PaymentService bridges bookings to the payment gateway. A payment is
// created pending, initialized for a gateway reference, and verified at
// most once.
type PaymentService struct {
	payments *database.PaymentRepository
	bookings *database.BookingRepository
	gateway  PaymentGateway
	logger   *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments *database.PaymentRepository,
	bookings *database.BookingRepository,
	gateway PaymentGateway,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		bookings: bookings,
		gateway:  gateway,
		logger:   logger,
	}
}

// InitiatePayment creates (or reuses) the pending payment for a booking
// and initializes a gateway transaction for it. The caller must own the
// booking and the amount must match the booking amount exactly.
func (s *PaymentService) InitiatePayment(user *models.User, req *models.CreatePaymentRequest) (*models.InitiatePaymentResponse, error) {
	booking, err := s.bookings.GetByID(req.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.PassengerID != user.ID {
		return nil, models.NewPermissionError("you can only pay for your own bookings")
	}
	if booking.IsPaid {
		return nil, models.NewValidationError("booking_id", "booking is already paid")
	}
	if booking.PaymentStatus == models.BookingPaymentCanceled {
		return nil, models.NewValidationError("booking_id", "canceled bookings cannot be paid")
	}
	if req.Amount != booking.Amount {
		return nil, models.NewValidationError("amount", "amount does not match the booking amount")
	}

	payment, err := s.payments.GetByBookingID(booking.ID)
	if err != nil {
		if _, ok := err.(*models.NotFoundError); !ok {
			return nil, err
		}
		payment = &models.Payment{
			BookingID: booking.ID,
			UserID:    user.ID,
			Amount:    booking.Amount,
		}
		if err := s.payments.Create(payment); err != nil {
			return nil, err
		}
	}
	if payment.Verified {
		return nil, models.NewValidationError("booking_id", "payment is already verified")
	}

	tx, err := s.gateway.Initialize(user.Email, payment.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.payments.SetReference(payment.ID, tx.Reference); err != nil {
		return nil, err
	}
	payment.Reference = &tx.Reference

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": booking.ID,
		"reference":  tx.Reference,
	}).Info("Payment initialized")

	return &models.InitiatePaymentResponse{
		Payment:          payment,
		Reference:        tx.Reference,
		AuthorizationURL: tx.AuthorizationURL,
	}, nil
}

// VerifyPayment confirms a gateway transaction by reference and flips the
// linked booking to paid. Verifying an already verified payment returns
// the current state without touching the gateway, so callbacks may be
// replayed safely.
func (s *PaymentService) VerifyPayment(reference string) (*models.VerifyPaymentResponse, error) {
	payment, err := s.payments.GetByReference(reference)
	if err != nil {
		return nil, err
	}

	if payment.Verified {
		booking, err := s.bookings.GetByID(payment.BookingID)
		if err != nil {
			return nil, err
		}
		return &models.VerifyPaymentResponse{Payment: payment, PaymentStatus: booking.PaymentStatus}, nil
	}

	ok, err := s.gateway.Verify(reference)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &models.GatewayError{Transient: false, Message: "payment was not successful"}
	}

	payment, err = s.payments.MarkVerified(payment.ID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(payment.BookingID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": booking.ID,
		"reference":  reference,
	}).Info("Payment verified")

	return &models.VerifyPaymentResponse{Payment: payment, PaymentStatus: booking.PaymentStatus}, nil
}
