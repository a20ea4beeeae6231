package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/database"
	"github.com/parklink/booking-backend/internal/middleware"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/parklink/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// ParkHandler handles park HTTP requests
type ParkHandler struct {
	parks        *database.ParkRepository
	roleProfiles *database.RoleProfileRepository
	permissions  *services.PermissionService
	logger       *logrus.Logger
}

// NewParkHandler creates a new park handler
func NewParkHandler(
	parks *database.ParkRepository,
	roleProfiles *database.RoleProfileRepository,
	permissions *services.PermissionService,
	logger *logrus.Logger,
) *ParkHandler {
	return &ParkHandler{
		parks:        parks,
		roleProfiles: roleProfiles,
		permissions:  permissions,
		logger:       logger,
	}
}

// List handles GET /api/v1/parks. Park listing is open to any
// authenticated user; passengers need it to place bookings.
func (h *ParkHandler) List(c *gin.Context) {
	parks, err := h.parks.List()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"parks": parks})
}

// Get handles GET /api/v1/parks/:id
func (h *ParkHandler) Get(c *gin.Context) {
	parkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid park ID",
		})
		return
	}

	park, err := h.parks.GetByID(parkID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, park)
}

// Create handles POST /api/v1/parks (admin)
func (h *ParkHandler) Create(c *gin.Context) {
	if !h.requireParkAdmin(c) {
		return
	}

	var req models.CreateParkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	park := &models.Park{
		Name:         req.Name,
		Code:         req.Code,
		Address:      req.Address,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		IsActive:     true,
	}

	if err := h.parks.Create(park); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"park_id": park.ID,
		"code":    park.Code,
	}).Info("Park created")

	c.JSON(http.StatusCreated, park)
}

// Update handles PATCH /api/v1/parks/:id (admin)
func (h *ParkHandler) Update(c *gin.Context) {
	if !h.requireParkAdmin(c) {
		return
	}

	parkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid park ID",
		})
		return
	}

	var req models.UpdateParkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	park, err := h.parks.Update(parkID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, park)
}

// Deactivate handles DELETE /api/v1/parks/:id (admin)
func (h *ParkHandler) Deactivate(c *gin.Context) {
	if !h.requireParkAdmin(c) {
		return
	}

	parkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid park ID",
		})
		return
	}

	if err := h.parks.Deactivate(parkID); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithField("park_id", parkID).Info("Park deactivated")

	c.JSON(http.StatusOK, gin.H{"message": "Park deactivated"})
}

func (h *ParkHandler) requireParkAdmin(c *gin.Context) bool {
	userCtx := middleware.MustGetUserContext(c)

	actor, err := loadActor(userCtx, h.roleProfiles)
	if err != nil {
		respondError(c, err)
		return false
	}

	if !h.permissions.CanManageParks(actor) {
		respondError(c, models.NewPermissionError("only administrators can manage parks"))
		return false
	}

	return true
}
