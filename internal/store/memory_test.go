package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet_portal/internal/models"
)

// compile-time checks
var (
	_ UserStore     = (*Memory)(nil)
	_ VehicleStore  = (*Memory)(nil)
	_ TrackingStore = (*Memory)(nil)
	_ UserStore     = (*GormStore)(nil)
	_ VehicleStore  = (*GormStore)(nil)
	_ TrackingStore = (*GormStore)(nil)
)

func TestMemory_Users(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	user := &models.User{Email: "dee@example.com", Role: models.RoleDriver}
	driver := &models.Driver{FullName: "Dee Driver"}
	require.NoError(t, m.CreateUser(ctx, user, driver))
	assert.NotZero(t, user.ID)
	assert.Equal(t, user.ID, driver.UserID)

	err := m.CreateUser(ctx, &models.User{Email: "DEE@example.com"}, nil)
	assert.ErrorIs(t, err, ErrConflict)

	found, err := m.FindUserByEmail(ctx, "dee@example.com")
	require.NoError(t, err)
	require.NotNil(t, found.Driver)
	assert.Equal(t, "Dee Driver", found.Driver.FullName)

	_, err = m.FindUserByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	d, err := m.FindDriverByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, driver.ID, d.ID)
}

func TestMemory_ShiftsAndLocations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	driver := &models.Driver{FullName: "Sam"}
	require.NoError(t, m.CreateUser(ctx, &models.User{Email: "sam@example.com"}, driver))
	van := &models.Vehicle{Registration: "ABC-123", Type: "van", InService: true}
	require.NoError(t, m.CreateVehicle(ctx, van))

	assert.ErrorIs(t, m.StartShift(ctx, &models.Shift{DriverID: 4242}), ErrNotFound)

	shift := &models.Shift{DriverID: driver.ID, VehicleID: &van.ID, StartedAt: time.Now()}
	require.NoError(t, m.StartShift(ctx, shift))
	assert.Equal(t, models.ShiftActive, shift.Status)
	require.NotNil(t, shift.Vehicle)
	assert.Equal(t, "ABC-123", shift.Vehicle.Registration)

	active, err := m.ActiveShifts(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	for _, offset := range []int{3, 1, 2, 0} {
		require.NoError(t, m.SaveLocation(ctx, &models.LocationLog{
			DriverID:  driver.ID,
			ShiftID:   shift.ID,
			Timestamp: base.Add(time.Duration(offset) * time.Minute),
		}))
	}
	logs, err := m.RecentLocations(ctx, driver.ID, 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, base.Add(time.Minute), logs[0].Timestamp)
	assert.Equal(t, base.Add(3*time.Minute), logs[2].Timestamp)

	ended, err := m.EndShift(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftCompleted, ended.Status)
	assert.NotNil(t, ended.EndedAt)

	_, err = m.ActiveShiftForDriver(ctx, driver.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Vehicles(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	truck := &models.Vehicle{Registration: "TRK-9", Type: "truck", InService: true}
	require.NoError(t, m.CreateVehicle(ctx, truck))
	require.NoError(t, m.CreateVehicle(ctx, &models.Vehicle{Registration: "UTE-1", Type: "ute"}))
	assert.ErrorIs(t, m.CreateVehicle(ctx, &models.Vehicle{Registration: "trk-9"}), ErrConflict)

	all, err := m.ListVehicles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "TRK-9", all[0].Registration)

	v, err := m.SetVehicleInService(ctx, truck.ID, false)
	require.NoError(t, err)
	assert.False(t, v.InService)
	found, err := m.FindVehicle(ctx, truck.ID)
	require.NoError(t, err)
	assert.False(t, found.InService)

	_, err = m.FindVehicle(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.SetVehicleInService(ctx, 999, true)
	assert.ErrorIs(t, err, ErrNotFound)
}
