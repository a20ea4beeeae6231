package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUUID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

func TestGrantRoleRequestValidate(t *testing.T) {
	t.Run("Agent Without License Is Fine", func(t *testing.T) {
		req := &GrantRoleRequest{Role: RoleAgent}
		assert.NoError(t, req.Validate())
	})

	t.Run("Unknown Role", func(t *testing.T) {
		req := &GrantRoleRequest{Role: "superuser"}
		err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, "role", err.(*ValidationError).Field)
	})

	t.Run("Driver Requires License Number", func(t *testing.T) {
		req := &GrantRoleRequest{Role: RoleDriver}
		err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, "license_number", err.(*ValidationError).Field)
	})
}

func TestUserFullName(t *testing.T) {
	user := &User{FirstName: "Ada", LastName: "Obi", Email: "ada@example.com"}
	assert.Equal(t, "Ada Obi", user.FullName())

	anonymous := &User{Email: "ghost@example.com"}
	assert.Equal(t, "ghost@example.com", anonymous.FullName())
}

func TestVehicleCanRotate(t *testing.T) {
	departure := uuid.New()
	arrival := uuid.New()

	vehicle := &Vehicle{DeparturePark: &departure, ArrivalPark: &arrival, IsDeparted: true, IsArrived: true}
	assert.True(t, vehicle.CanRotate())

	vehicle.IsArrived = false
	assert.False(t, vehicle.CanRotate())

	unrouted := &Vehicle{IsDeparted: true, IsArrived: true}
	assert.False(t, unrouted.CanRotate())
}
