package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/database"
	"github.com/parklink/booking-backend/internal/middleware"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/parklink/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	reservations *services.ReservationService
	bookings     *database.BookingRepository
	users        *database.UserRepository
	roleProfiles *database.RoleProfileRepository
	permissions  *services.PermissionService
	notifier     *services.NotificationService
	logger       *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(
	reservations *services.ReservationService,
	bookings *database.BookingRepository,
	users *database.UserRepository,
	roleProfiles *database.RoleProfileRepository,
	permissions *services.PermissionService,
	notifier *services.NotificationService,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		reservations: reservations,
		bookings:     bookings,
		users:        users,
		roleProfiles: roleProfiles,
		permissions:  permissions,
		notifier:     notifier,
		logger:       logger,
	}
}

// CheckInRequest is the payload for check-in by booking code
type CheckInRequest struct {
	BookingCode string `json:"booking_code" binding:"required"`
}

// Create handles POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	passenger, err := h.users.GetByID(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	booking, err := h.reservations.CreateBooking(passenger, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// Get handles GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	booking, actor, ok := h.loadBooking(c)
	if !ok {
		return
	}

	if !h.permissions.CanViewBooking(actor, booking) {
		respondError(c, models.NewPermissionError("you cannot view this booking"))
		return
	}

	c.JSON(http.StatusOK, booking)
}

// QRCode handles GET /api/v1/bookings/:id/qr and serves the booking's QR
// image
func (h *BookingHandler) QRCode(c *gin.Context) {
	booking, actor, ok := h.loadBooking(c)
	if !ok {
		return
	}

	if !h.permissions.CanViewBooking(actor, booking) {
		respondError(c, models.NewPermissionError("you cannot view this booking"))
		return
	}

	if !booking.IsBookingCodeValid() || len(booking.QRCode) == 0 {
		respondError(c, models.NewValidationError("booking", "booking code is no longer valid"))
		return
	}

	c.Data(http.StatusOK, "image/png", booking.QRCode)
}

// ListMine handles GET /api/v1/bookings. The optional window query
// selects upcoming or past bookings.
func (h *BookingHandler) ListMine(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var (
		bookings []models.Booking
		err      error
	)
	switch c.Query("window") {
	case "upcoming":
		bookings, err = h.bookings.Upcoming(userCtx.UserID)
	case "past":
		bookings, err = h.bookings.Past(userCtx.UserID)
	default:
		bookings, err = h.bookings.ListByPassenger(userCtx.UserID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// ListAll handles GET /api/v1/bookings/all (staff). Agents see bookings
// scoped to their park; admins see everything.
func (h *BookingHandler) ListAll(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	actor, err := loadActor(userCtx, h.roleProfiles)
	if err != nil {
		respondError(c, err)
		return
	}

	var parkID *uuid.UUID
	switch {
	case actor.HasRole(models.RoleAdmin):
		// unscoped
	case actor.HasRole(models.RoleAgent):
		if profile := actor.Profiles[models.RoleAgent]; profile != nil {
			parkID = profile.ServiceRegionID
		}
	default:
		respondError(c, models.NewPermissionError("you cannot list all bookings"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	bookings, err := h.bookings.ListAll(parkID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "limit": limit, "offset": offset})
}

// Update handles PATCH /api/v1/bookings/:id
func (h *BookingHandler) Update(c *gin.Context) {
	booking, actor, ok := h.loadBooking(c)
	if !ok {
		return
	}

	if !h.permissions.CanModifyBooking(actor, booking) {
		respondError(c, models.NewPermissionError("you cannot modify this booking"))
		return
	}
	if booking.IsCheckedIn {
		respondError(c, models.NewValidationError("booking", "checked-in bookings cannot be modified"))
		return
	}

	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	updated, err := h.bookings.Update(booking.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if owner, err := h.users.GetByID(updated.PassengerID); err == nil {
		h.notifier.BookingUpdated(owner, updated)
	}

	c.JSON(http.StatusOK, updated)
}

// Cancel handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	booking, actor, ok := h.loadBooking(c)
	if !ok {
		return
	}

	if !h.permissions.CanCancelBooking(actor, booking) {
		respondError(c, models.NewPermissionError("you cannot cancel this booking"))
		return
	}

	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Cancellation reason is required",
		})
		return
	}

	canceled, err := h.reservations.Cancel(booking.ID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	if owner, err := h.users.GetByID(canceled.PassengerID); err == nil {
		h.notifier.BookingCanceled(owner, canceled)
	}

	c.JSON(http.StatusOK, canceled)
}

// CheckIn handles POST /api/v1/bookings/check-in (staff)
func (h *BookingHandler) CheckIn(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Booking code is required",
		})
		return
	}

	actor, err := loadActor(userCtx, h.roleProfiles)
	if err != nil {
		respondError(c, err)
		return
	}

	booking, err := h.bookings.GetByCode(req.BookingCode)
	if err != nil {
		respondError(c, err)
		return
	}

	if !h.permissions.CanOperateCheckIn(actor, booking) {
		respondError(c, models.NewPermissionError("you cannot check in passengers at this park"))
		return
	}

	checkedIn, err := h.reservations.CheckInByCode(req.BookingCode, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	if owner, err := h.users.GetByID(checkedIn.PassengerID); err == nil {
		h.notifier.BookingCheckedIn(owner, checkedIn)
	}

	c.JSON(http.StatusOK, checkedIn)
}

// CheckOut handles POST /api/v1/bookings/:id/check-out (staff)
func (h *BookingHandler) CheckOut(c *gin.Context) {
	booking, actor, ok := h.loadBooking(c)
	if !ok {
		return
	}

	if !h.permissions.CanOperateCheckIn(actor, booking) {
		respondError(c, models.NewPermissionError("you cannot check out passengers at this park"))
		return
	}

	checkedOut, err := h.reservations.CheckOut(booking.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	if owner, err := h.users.GetByID(checkedOut.PassengerID); err == nil {
		h.notifier.BookingCheckedOut(owner, checkedOut)
	}

	c.JSON(http.StatusOK, checkedOut)
}

// Delete handles DELETE /api/v1/bookings/:id. Hard deletion is an
// administrative cleanup operation; passengers cancel instead.
func (h *BookingHandler) Delete(c *gin.Context) {
	booking, actor, ok := h.loadBooking(c)
	if !ok {
		return
	}

	if !actor.HasRole(models.RoleAdmin) {
		respondError(c, models.NewPermissionError("only administrators can delete bookings"))
		return
	}

	if err := h.bookings.Delete(booking.ID); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"deleted_by": actor.UserID,
	}).Info("Booking deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted"})
}

// loadBooking parses the booking ID and loads the booking plus the
// caller's capability actor
func (h *BookingHandler) loadBooking(c *gin.Context) (*models.Booking, *services.Actor, bool) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid booking ID",
		})
		return nil, nil, false
	}

	actor, err := loadActor(userCtx, h.roleProfiles)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}

	booking, err := h.bookings.GetByID(bookingID)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}

	return booking, actor, true
}
