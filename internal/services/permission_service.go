package services

import (
	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// Owned is a resource that belongs to a single user
type Owned interface {
	OwnerID() uuid.UUID
}

// ParkScoped is a resource tied to a park; staff whose role profile is
// scoped to a different park may not operate on it
type ParkScoped interface {
	ScopingPark() *uuid.UUID
}

// Actor is the authenticated caller plus the role profiles backing its
// role claims
type Actor struct {
	UserID   uuid.UUID
	Roles    []models.Role
	Profiles map[models.Role]*models.RoleProfile
}

// HasRole reports whether the actor holds the given role
func (a *Actor) HasRole(role models.Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PermissionService evaluates capability checks against an actor's roles
// and profile scoping. A capability is granted if ANY of the actor's roles
// grants it.
type PermissionService struct {
	logger *logrus.Logger
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(logger *logrus.Logger) *PermissionService {
	return &PermissionService{logger: logger}
}

// CanViewBooking reports whether the actor may read a booking. Owners and
// admins always may; agents and drivers only within their park scope.
func (s *PermissionService) CanViewBooking(actor *Actor, booking *models.Booking) bool {
	if actor.UserID == booking.OwnerID() {
		return true
	}
	if actor.HasRole(models.RoleAdmin) {
		return true
	}
	if actor.HasRole(models.RoleAgent) && s.inScope(actor, models.RoleAgent, booking) {
		return true
	}
	if actor.HasRole(models.RoleDriver) && s.drivesBookingVehicle(actor, booking) {
		return true
	}
	return false
}

// CanModifyBooking reports whether the actor may edit a booking before
// check-in
func (s *PermissionService) CanModifyBooking(actor *Actor, booking *models.Booking) bool {
	if actor.UserID == booking.OwnerID() {
		return true
	}
	return actor.HasRole(models.RoleAdmin)
}

// CanCancelBooking reports whether the actor may cancel a booking
func (s *PermissionService) CanCancelBooking(actor *Actor, booking *models.Booking) bool {
	if actor.UserID == booking.OwnerID() {
		return true
	}
	if actor.HasRole(models.RoleAdmin) {
		return true
	}
	return actor.HasRole(models.RoleAgent) && s.inScope(actor, models.RoleAgent, booking)
}

// CanOperateCheckIn reports whether the actor may check passengers in and
// out at the booking's source park
func (s *PermissionService) CanOperateCheckIn(actor *Actor, booking *models.Booking) bool {
	if actor.HasRole(models.RoleAdmin) {
		return true
	}
	return actor.HasRole(models.RoleAgent) && s.inScope(actor, models.RoleAgent, booking)
}

// CanManageVehicle reports whether the actor may create, update or
// reschedule a vehicle
func (s *PermissionService) CanManageVehicle(actor *Actor, vehicle *models.Vehicle) bool {
	if actor.HasRole(models.RoleAdmin) {
		return true
	}
	if !actor.HasRole(models.RoleFleetManager) {
		return false
	}
	if vehicle == nil {
		return true
	}
	return s.inScope(actor, models.RoleFleetManager, vehicle)
}

// CanManageParks reports whether the actor may administer parks
func (s *PermissionService) CanManageParks(actor *Actor) bool {
	return actor.HasRole(models.RoleAdmin)
}

// CanManageUsers reports whether the actor may list users and grant or
// revoke roles
func (s *PermissionService) CanManageUsers(actor *Actor) bool {
	return actor.HasRole(models.RoleAdmin)
}

// inScope checks the actor's profile for the role against the resource's
// scoping park. A profile with no service region is unscoped and passes.
func (s *PermissionService) inScope(actor *Actor, role models.Role, resource ParkScoped) bool {
	profile, ok := actor.Profiles[role]
	if !ok || profile.ServiceRegionID == nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": actor.UserID,
			"role":    role,
		}).Debug("Role profile has no service region, treating as unscoped")
		return true
	}

	park := resource.ScopingPark()
	if park == nil {
		return true
	}
	return *profile.ServiceRegionID == *park
}

// drivesBookingVehicle checks whether the actor's driver profile is
// assigned to either leg of the booking
func (s *PermissionService) drivesBookingVehicle(actor *Actor, booking *models.Booking) bool {
	profile, ok := actor.Profiles[models.RoleDriver]
	if !ok || profile.VehicleID == nil {
		return false
	}
	if *profile.VehicleID == booking.VehicleID {
		return true
	}
	return booking.ReturnVehicleID != nil && *profile.VehicleID == *booking.ReturnVehicleID
}
