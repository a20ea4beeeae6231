package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parklink/booking-backend/internal/database"
	"github.com/parklink/booking-backend/internal/middleware"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/parklink/booking-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// respondError maps domain errors to HTTP status codes. Unknown errors are
// reported as 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch e := err.(type) {
	case *models.ValidationError:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: e.Message,
			Field:   e.Field,
		})
	case *models.NoAvailabilityError:
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "no_availability",
			Message: e.Message,
			Field:   e.Leg,
		})
	case *models.ConcurrentExhaustionError:
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "seats_exhausted",
			Message: e.Error(),
		})
	case *models.NotFoundError:
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: e.Error(),
		})
	case *models.PermissionError:
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: e.Message,
		})
	case *models.GatewayError:
		status := http.StatusBadRequest
		if e.Transient {
			status = http.StatusBadGateway
		}
		c.JSON(status, ErrorResponse{
			Error:   "payment_gateway_error",
			Message: e.Message,
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}

// loadActor builds the capability actor for the authenticated user from
// the authoritative role profile rows, not the token's role claims.
func loadActor(userCtx middleware.UserContext, roleProfiles *database.RoleProfileRepository) (*services.Actor, error) {
	profiles, err := roleProfiles.GetProfilesForUser(userCtx.UserID)
	if err != nil {
		return nil, err
	}

	actor := &services.Actor{
		UserID:   userCtx.UserID,
		Roles:    make([]models.Role, 0, len(profiles)),
		Profiles: make(map[models.Role]*models.RoleProfile, len(profiles)),
	}
	for i := range profiles {
		actor.Roles = append(actor.Roles, profiles[i].Role)
		actor.Profiles[profiles[i].Role] = &profiles[i]
	}

	return actor, nil
}
