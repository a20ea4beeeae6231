package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parklink/booking-backend/internal/database"
	"github.com/parklink/booking-backend/internal/middleware"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/parklink/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	payments *services.PaymentService
	users    *database.UserRepository
	bookings *database.BookingRepository
	notifier *services.NotificationService
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(
	payments *services.PaymentService,
	users *database.UserRepository,
	bookings *database.BookingRepository,
	notifier *services.NotificationService,
	logger *logrus.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		users:    users,
		bookings: bookings,
		notifier: notifier,
		logger:   logger,
	}
}

// Initiate handles POST /api/v1/payments
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	user, err := h.users.GetByID(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.payments.InitiatePayment(user, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Verify handles GET /api/v1/payments/verify/:reference. The reference
// route parameter is the gateway's transaction reference.
func (h *PaymentHandler) Verify(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Payment reference is required",
		})
		return
	}

	resp, err := h.payments.VerifyPayment(reference)
	if err != nil {
		respondError(c, err)
		return
	}

	if resp.PaymentStatus == models.BookingPaymentConfirmed {
		if booking, err := h.bookings.GetByID(resp.Payment.BookingID); err == nil {
			if owner, err := h.users.GetByID(booking.PassengerID); err == nil {
				h.notifier.PaymentConfirmed(owner, booking)
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
