package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RolePatient.IsValid())
	assert.True(t, RolePhysician.IsValid())
	assert.False(t, Role("admin").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestIdentity_AssignRole(t *testing.T) {
	id := &Identity{Role: RolePatient}

	changed, err := id.AssignRole(RolePhysician)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, RolePhysician, id.Role)

	changed, err = id.AssignRole(RolePhysician)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = id.AssignRole(Role("student"))
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.False(t, changed)
	assert.Equal(t, RolePhysician, id.Role)
}

func TestIdentity_LockedAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id := &Identity{}
	assert.False(t, id.LockedAt(now))

	until := now.Add(15 * time.Minute)
	id.LockedUntil = &until
	assert.True(t, id.LockedAt(now))
	assert.True(t, id.LockedAt(until.Add(-time.Second)))
	assert.False(t, id.LockedAt(until))
	assert.False(t, id.LockedAt(until.Add(time.Second)))
}
