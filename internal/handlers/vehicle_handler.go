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

// VehicleHandler handles fleet vehicle HTTP requests
type VehicleHandler struct {
	vehicles     *database.VehicleRepository
	roleProfiles *database.RoleProfileRepository
	permissions  *services.PermissionService
	logger       *logrus.Logger
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(
	vehicles *database.VehicleRepository,
	roleProfiles *database.RoleProfileRepository,
	permissions *services.PermissionService,
	logger *logrus.Logger,
) *VehicleHandler {
	return &VehicleHandler{
		vehicles:     vehicles,
		roleProfiles: roleProfiles,
		permissions:  permissions,
		logger:       logger,
	}
}

// List handles GET /api/v1/vehicles
func (h *VehicleHandler) List(c *gin.Context) {
	var parkID *uuid.UUID
	if raw := c.Query("park_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "Invalid park ID",
			})
			return
		}
		parkID = &id
	}

	vehicles, err := h.vehicles.List(parkID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

// Get handles GET /api/v1/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid vehicle ID",
		})
		return
	}

	vehicle, err := h.vehicles.GetByID(vehicleID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

// Create handles POST /api/v1/vehicles (admin, fleet manager)
func (h *VehicleHandler) Create(c *gin.Context) {
	actor, ok := h.fleetActor(c)
	if !ok {
		return
	}
	if !h.permissions.CanManageVehicle(actor, nil) {
		respondError(c, models.NewPermissionError("you cannot manage vehicles"))
		return
	}

	var req models.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	vehicle := &models.Vehicle{
		Name:          req.Name,
		Model:         req.Model,
		Year:          req.Year,
		LicensePlate:  req.LicensePlate,
		TotalSeats:    req.TotalSeats,
		TripFare:      req.TripFare,
		DeparturePark: req.DeparturePark,
		ArrivalPark:   req.ArrivalPark,
		DepartureTime: req.DepartureTime,
		HourlyRate:    req.HourlyRate,
		DailyRate:     req.DailyRate,
	}

	if err := h.vehicles.Create(vehicle); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"vehicle_id":    vehicle.ID,
		"license_plate": vehicle.LicensePlate,
	}).Info("Vehicle registered")

	c.JSON(http.StatusCreated, vehicle)
}

// Update handles PATCH /api/v1/vehicles/:id (admin, fleet manager in scope)
func (h *VehicleHandler) Update(c *gin.Context) {
	vehicle, _, ok := h.scopedVehicle(c)
	if !ok {
		return
	}

	var req models.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	updated, err := h.vehicles.Update(vehicle.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// UpdateSchedule handles PUT /api/v1/vehicles/:id/schedule (admin, fleet
// manager in scope)
func (h *VehicleHandler) UpdateSchedule(c *gin.Context) {
	vehicle, _, ok := h.scopedVehicle(c)
	if !ok {
		return
	}

	var req models.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if req.DeparturePark == req.ArrivalPark {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Arrival park must differ from departure park",
			Field:   "arrival_park",
		})
		return
	}

	updated, err := h.vehicles.UpdateSchedule(vehicle.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"vehicle_id":     updated.ID,
		"departure_time": req.DepartureTime,
	}).Info("Vehicle schedule updated")

	c.JSON(http.StatusOK, updated)
}

// RotateSchedule handles POST /api/v1/vehicles/:id/rotate (admin, fleet
// manager in scope). The completed trip's route is reversed for the next
// departure.
func (h *VehicleHandler) RotateSchedule(c *gin.Context) {
	vehicle, _, ok := h.scopedVehicle(c)
	if !ok {
		return
	}

	rotated, err := h.vehicles.RotateSchedule(vehicle.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"vehicle_id": rotated.ID,
		"trip_count": rotated.TripCount,
	}).Info("Vehicle schedule rotated")

	c.JSON(http.StatusOK, rotated)
}

// Delete handles DELETE /api/v1/vehicles/:id (admin, fleet manager in scope)
func (h *VehicleHandler) Delete(c *gin.Context) {
	vehicle, _, ok := h.scopedVehicle(c)
	if !ok {
		return
	}

	if err := h.vehicles.Delete(vehicle.ID); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithField("vehicle_id", vehicle.ID).Info("Vehicle deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted"})
}

// fleetActor loads the capability actor for fleet operations
func (h *VehicleHandler) fleetActor(c *gin.Context) (*services.Actor, bool) {
	userCtx := middleware.MustGetUserContext(c)

	actor, err := loadActor(userCtx, h.roleProfiles)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	return actor, true
}

// scopedVehicle parses the vehicle ID, loads the vehicle and checks the
// caller may manage it
func (h *VehicleHandler) scopedVehicle(c *gin.Context) (*models.Vehicle, *services.Actor, bool) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid vehicle ID",
		})
		return nil, nil, false
	}

	actor, ok := h.fleetActor(c)
	if !ok {
		return nil, nil, false
	}

	vehicle, err := h.vehicles.GetByID(vehicleID)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}

	if !h.permissions.CanManageVehicle(actor, vehicle) {
		respondError(c, models.NewPermissionError("you cannot manage this vehicle"))
		return nil, nil, false
	}

	return vehicle, actor, true
}
