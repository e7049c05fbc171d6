package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"fleet_portal/internal/models"
)

// GormStore implements UserStore, VehicleStore and TrackingStore on Postgres.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Detail)
	}
	return err
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User, driver *models.Driver) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if driver == nil {
			return nil
		}
		driver.UserID = user.ID
		if err := tx.Create(driver).Error; err != nil {
			return err
		}
		user.Driver = driver
		return nil
	})
	return translate(err)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Driver").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Driver").First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CreateVehicle(ctx context.Context, v *models.Vehicle) error {
	return translate(s.DB.WithContext(ctx).Create(v).Error)
}

func (s *GormStore) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := s.DB.WithContext(ctx).Order("id").Find(&vehicles).Error; err != nil {
		return nil, translate(err)
	}
	return vehicles, nil
}

func (s *GormStore) FindVehicle(ctx context.Context, id uint) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := s.DB.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *GormStore) SetVehicleInService(ctx context.Context, id uint, inService bool) (*models.Vehicle, error) {
	v, err := s.FindVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	// Update with a column name so false is written.
	if err := s.DB.WithContext(ctx).Model(v).Update("in_service", inService).Error; err != nil {
		return nil, translate(err)
	}
	v.InService = inService
	return v, nil
}

func (s *GormStore) ActiveShifts(ctx context.Context) ([]models.Shift, error) {
	var shifts []models.Shift
	err := s.DB.WithContext(ctx).
		Preload("Driver").
		Preload("Vehicle").
		Where("status = ?", models.ShiftActive).
		Order("started_at asc").
		Find(&shifts).Error
	if err != nil {
		return nil, translate(err)
	}
	return shifts, nil
}

func (s *GormStore) ActiveShiftForDriver(ctx context.Context, driverID uint) (*models.Shift, error) {
	var shift models.Shift
	err := s.DB.WithContext(ctx).
		Preload("Driver").
		Preload("Vehicle").
		Where("driver_id = ? AND status = ?", driverID, models.ShiftActive).
		Order("started_at desc").
		First(&shift).Error
	if err != nil {
		return nil, translate(err)
	}
	return &shift, nil
}

func (s *GormStore) StartShift(ctx context.Context, shift *models.Shift) error {
	if shift.Status == "" {
		shift.Status = models.ShiftActive
	}
	return translate(s.DB.WithContext(ctx).Create(shift).Error)
}

func (s *GormStore) EndShift(ctx context.Context, shiftID uint) (*models.Shift, error) {
	var shift models.Shift
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&shift, shiftID).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		shift.Status = models.ShiftCompleted
		shift.EndedAt = &now
		return tx.Save(&shift).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &shift, nil
}

func (s *GormStore) FindDriver(ctx context.Context, driverID uint) (*models.Driver, error) {
	var driver models.Driver
	if err := s.DB.WithContext(ctx).First(&driver, driverID).Error; err != nil {
		return nil, translate(err)
	}
	return &driver, nil
}

func (s *GormStore) FindDriverByUserID(ctx context.Context, userID uint) (*models.Driver, error) {
	var driver models.Driver
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&driver).Error; err != nil {
		return nil, translate(err)
	}
	return &driver, nil
}

func (s *GormStore) RecentLocations(ctx context.Context, driverID uint, limit int) ([]models.LocationLog, error) {
	var logs []models.LocationLog
	err := s.DB.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("timestamp desc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, translate(err)
	}
	// newest first from the query; the engine wants oldest first
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs, nil
}

func (s *GormStore) SaveLocation(ctx context.Context, log *models.LocationLog) error {
	return translate(s.DB.WithContext(ctx).Create(log).Error)
}
