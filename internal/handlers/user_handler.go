package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/database"
	"github.com/parklink/booking-backend/internal/middleware"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/parklink/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// UserHandler handles user profile, role grant, address and emergency
// contact HTTP requests
type UserHandler struct {
	users        *database.UserRepository
	roleProfiles *database.RoleProfileRepository
	permissions  *services.PermissionService
	logger       *logrus.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	users *database.UserRepository,
	roleProfiles *database.RoleProfileRepository,
	permissions *services.PermissionService,
	logger *logrus.Logger,
) *UserHandler {
	return &UserHandler{
		users:        users,
		roleProfiles: roleProfiles,
		permissions:  permissions,
		logger:       logger,
	}
}

// UpdateProfile handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	user, err := h.users.UpdateProfile(userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// List handles GET /api/v1/users (admin)
func (h *UserHandler) List(c *gin.Context) {
	if !h.requireUserAdmin(c) {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	users, err := h.users.List(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "limit": limit, "offset": offset})
}

// Deactivate handles DELETE /api/v1/users/:id (admin)
func (h *UserHandler) Deactivate(c *gin.Context) {
	if !h.requireUserAdmin(c) {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid user ID",
		})
		return
	}

	if err := h.users.Deactivate(userID); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithField("user_id", userID).Info("User deactivated")

	c.JSON(http.StatusOK, gin.H{"message": "User deactivated"})
}

// GrantRole handles POST /api/v1/users/:id/roles (admin)
func (h *UserHandler) GrantRole(c *gin.Context) {
	if !h.requireUserAdmin(c) {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid user ID",
		})
		return
	}

	var req models.GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err)
		return
	}

	// Grant target must exist
	if _, err := h.users.GetByID(userID); err != nil {
		respondError(c, err)
		return
	}

	profile := &models.RoleProfile{
		UserID:            userID,
		Role:              req.Role,
		ServiceRegionID:   req.ServiceRegionID,
		LicenseNumber:     req.LicenseNumber,
		LicenseExpiryDate: req.LicenseExpiryDate,
		VehicleID:         req.VehicleID,
	}

	if err := h.roleProfiles.Grant(profile); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"role":    req.Role,
	}).Info("Role granted")

	c.JSON(http.StatusCreated, profile)
}

// RevokeRole handles DELETE /api/v1/users/:id/roles/:role (admin)
func (h *UserHandler) RevokeRole(c *gin.Context) {
	if !h.requireUserAdmin(c) {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid user ID",
		})
		return
	}

	role := models.Role(c.Param("role"))
	if !role.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Unknown role",
			Field:   "role",
		})
		return
	}

	if err := h.roleProfiles.Revoke(userID, role); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"role":    role,
	}).Info("Role revoked")

	c.JSON(http.StatusOK, gin.H{"message": "Role revoked"})
}

// ListRoles handles GET /api/v1/users/:id/roles (admin)
func (h *UserHandler) ListRoles(c *gin.Context) {
	if !h.requireUserAdmin(c) {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid user ID",
		})
		return
	}

	profiles, err := h.roleProfiles.GetProfilesForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"roles": profiles})
}

// CreateAddress handles POST /api/v1/users/me/addresses
func (h *UserHandler) CreateAddress(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	address := &models.Address{
		UserID:        userCtx.UserID,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
		IsDefault:     req.IsDefault,
	}

	if err := h.users.CreateAddress(address); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, address)
}

// ListAddresses handles GET /api/v1/users/me/addresses
func (h *UserHandler) ListAddresses(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	addresses, err := h.users.GetAddresses(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// DeleteAddress handles DELETE /api/v1/users/me/addresses/:id
func (h *UserHandler) DeleteAddress(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	addressID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid address ID",
		})
		return
	}

	if err := h.users.DeleteAddress(userCtx.UserID, addressID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}

// CreateEmergencyContact handles POST /api/v1/users/me/emergency-contacts
func (h *UserHandler) CreateEmergencyContact(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateEmergencyContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	contact := &models.EmergencyContact{
		UserID:       userCtx.UserID,
		Name:         req.Name,
		PhoneNumber:  req.PhoneNumber,
		Relationship: req.Relationship,
	}

	if err := h.users.CreateEmergencyContact(contact); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// ListEmergencyContacts handles GET /api/v1/users/me/emergency-contacts
func (h *UserHandler) ListEmergencyContacts(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	contacts, err := h.users.GetEmergencyContacts(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"emergency_contacts": contacts})
}

// DeleteEmergencyContact handles DELETE /api/v1/users/me/emergency-contacts/:id
func (h *UserHandler) DeleteEmergencyContact(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid contact ID",
		})
		return
	}

	if err := h.users.DeleteEmergencyContact(userCtx.UserID, contactID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Emergency contact deleted"})
}

// requireUserAdmin verifies the caller's admin profile and writes the
// error response when the check fails
func (h *UserHandler) requireUserAdmin(c *gin.Context) bool {
	userCtx := middleware.MustGetUserContext(c)

	actor, err := loadActor(userCtx, h.roleProfiles)
	if err != nil {
		respondError(c, err)
		return false
	}

	if !h.permissions.CanManageUsers(actor) {
		respondError(c, models.NewPermissionError("only administrators can manage users"))
		return false
	}

	return true
}
