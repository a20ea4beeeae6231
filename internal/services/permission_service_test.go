package services

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/parklink/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func actorWith(role models.Role, regionID *uuid.UUID) *Actor {
	userID := uuid.New()
	return &Actor{
		UserID: userID,
		Roles:  []models.Role{role},
		Profiles: map[models.Role]*models.RoleProfile{
			role: {UserID: userID, Role: role, ServiceRegionID: regionID},
		},
	}
}

func TestCanViewBooking(t *testing.T) {
	svc := NewPermissionService(testLogger())
	park := uuid.New()
	booking := &models.Booking{PassengerID: uuid.New(), VehicleID: uuid.New(), SourcePark: park}

	t.Run("Owner", func(t *testing.T) {
		actor := &Actor{UserID: booking.PassengerID, Profiles: map[models.Role]*models.RoleProfile{}}
		assert.True(t, svc.CanViewBooking(actor, booking))
	})

	t.Run("Admin", func(t *testing.T) {
		assert.True(t, svc.CanViewBooking(actorWith(models.RoleAdmin, nil), booking))
	})

	t.Run("Agent In Scope", func(t *testing.T) {
		assert.True(t, svc.CanViewBooking(actorWith(models.RoleAgent, &park), booking))
	})

	t.Run("Agent Out Of Scope", func(t *testing.T) {
		otherPark := uuid.New()
		assert.False(t, svc.CanViewBooking(actorWith(models.RoleAgent, &otherPark), booking))
	})

	t.Run("Unscoped Agent", func(t *testing.T) {
		assert.True(t, svc.CanViewBooking(actorWith(models.RoleAgent, nil), booking))
	})

	t.Run("Assigned Driver", func(t *testing.T) {
		actor := actorWith(models.RoleDriver, nil)
		actor.Profiles[models.RoleDriver].VehicleID = &booking.VehicleID
		assert.True(t, svc.CanViewBooking(actor, booking))
	})

	t.Run("Unassigned Driver", func(t *testing.T) {
		otherVehicle := uuid.New()
		actor := actorWith(models.RoleDriver, nil)
		actor.Profiles[models.RoleDriver].VehicleID = &otherVehicle
		assert.False(t, svc.CanViewBooking(actor, booking))
	})

	t.Run("Stranger", func(t *testing.T) {
		actor := &Actor{UserID: uuid.New(), Profiles: map[models.Role]*models.RoleProfile{}}
		assert.False(t, svc.CanViewBooking(actor, booking))
	})
}

func TestCanOperateCheckIn(t *testing.T) {
	svc := NewPermissionService(testLogger())
	park := uuid.New()
	booking := &models.Booking{PassengerID: uuid.New(), SourcePark: park}

	t.Run("Owner Cannot Self Check In", func(t *testing.T) {
		actor := &Actor{UserID: booking.PassengerID, Profiles: map[models.Role]*models.RoleProfile{}}
		assert.False(t, svc.CanOperateCheckIn(actor, booking))
	})

	t.Run("Agent In Scope", func(t *testing.T) {
		assert.True(t, svc.CanOperateCheckIn(actorWith(models.RoleAgent, &park), booking))
	})

	t.Run("Agent At Another Park", func(t *testing.T) {
		otherPark := uuid.New()
		assert.False(t, svc.CanOperateCheckIn(actorWith(models.RoleAgent, &otherPark), booking))
	})

	t.Run("Admin Anywhere", func(t *testing.T) {
		assert.True(t, svc.CanOperateCheckIn(actorWith(models.RoleAdmin, nil), booking))
	})
}

func TestCanManageVehicle(t *testing.T) {
	svc := NewPermissionService(testLogger())
	park := uuid.New()
	vehicle := &models.Vehicle{ID: uuid.New(), DeparturePark: &park}

	t.Run("Fleet Manager In Scope", func(t *testing.T) {
		assert.True(t, svc.CanManageVehicle(actorWith(models.RoleFleetManager, &park), vehicle))
	})

	t.Run("Fleet Manager Out Of Scope", func(t *testing.T) {
		otherPark := uuid.New()
		assert.False(t, svc.CanManageVehicle(actorWith(models.RoleFleetManager, &otherPark), vehicle))
	})

	t.Run("Unrouted Vehicle Is Unscoped", func(t *testing.T) {
		otherPark := uuid.New()
		unrouted := &models.Vehicle{ID: uuid.New()}
		assert.True(t, svc.CanManageVehicle(actorWith(models.RoleFleetManager, &otherPark), unrouted))
	})

	t.Run("Agent Cannot Manage Fleet", func(t *testing.T) {
		assert.False(t, svc.CanManageVehicle(actorWith(models.RoleAgent, &park), vehicle))
	})

	t.Run("Any Role Grants Wins", func(t *testing.T) {
		// An actor who is both an out-of-scope fleet manager and an
		// admin is still allowed: grants are ORed.
		otherPark := uuid.New()
		actor := actorWith(models.RoleFleetManager, &otherPark)
		actor.Roles = append(actor.Roles, models.RoleAdmin)
		actor.Profiles[models.RoleAdmin] = &models.RoleProfile{UserID: actor.UserID, Role: models.RoleAdmin}
		assert.True(t, svc.CanManageVehicle(actor, vehicle))
	})
}

func TestCanManageParks(t *testing.T) {
	svc := NewPermissionService(testLogger())

	assert.True(t, svc.CanManageParks(actorWith(models.RoleAdmin, nil)))
	assert.False(t, svc.CanManageParks(actorWith(models.RoleFleetManager, nil)))
	assert.False(t, svc.CanManageParks(actorWith(models.RoleAgent, nil)))
	assert.False(t, svc.CanManageParks(actorWith(models.RoleDriver, nil)))
}
