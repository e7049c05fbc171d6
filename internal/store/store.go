// Package store defines persistence for users, shifts and location logs.
package store

import (
	"context"
	"errors"

	"fleet_portal/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// UserStore handles account records.
type UserStore interface {
	// CreateUser inserts user and, when driver is non-nil, its driver profile in one transaction.
	CreateUser(ctx context.Context, user *models.User, driver *models.Driver) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

// VehicleStore handles the fleet register.
type VehicleStore interface {
	CreateVehicle(ctx context.Context, v *models.Vehicle) error
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	FindVehicle(ctx context.Context, id uint) (*models.Vehicle, error)
	SetVehicleInService(ctx context.Context, id uint, inService bool) (*models.Vehicle, error)
}

// TrackingStore handles shifts and location history.
type TrackingStore interface {
	ActiveShifts(ctx context.Context) ([]models.Shift, error)
	ActiveShiftForDriver(ctx context.Context, driverID uint) (*models.Shift, error)
	StartShift(ctx context.Context, shift *models.Shift) error
	EndShift(ctx context.Context, shiftID uint) (*models.Shift, error)

	FindDriver(ctx context.Context, driverID uint) (*models.Driver, error)
	FindDriverByUserID(ctx context.Context, userID uint) (*models.Driver, error)

	// RecentLocations returns up to limit latest logs of a driver, oldest first.
	RecentLocations(ctx context.Context, driverID uint, limit int) ([]models.LocationLog, error)
	SaveLocation(ctx context.Context, log *models.LocationLog) error
}
