package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fleet_portal/internal/models"
)

// Memory is an in-process UserStore, VehicleStore and TrackingStore for local runs and tests.
type Memory struct {
	mu       sync.RWMutex
	nextID   uint
	users    map[uint]models.User
	drivers  map[uint]models.Driver
	vehicles map[uint]models.Vehicle
	shifts   map[uint]models.Shift
	logs     []models.LocationLog
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uint]models.User),
		drivers:  make(map[uint]models.Driver),
		vehicles: make(map[uint]models.Vehicle),
		shifts:   make(map[uint]models.Shift),
	}
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func (m *Memory) CreateUser(_ context.Context, user *models.User, driver *models.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrConflict
		}
	}
	user.ID = m.id()
	user.CreatedAt = time.Now().UTC()
	if driver != nil {
		driver.ID = m.id()
		driver.UserID = user.ID
		m.drivers[driver.ID] = *driver
		user.Driver = driver
	}
	stored := *user
	stored.Driver = nil
	m.users[user.ID] = stored
	return nil
}

func (m *Memory) withDriver(u models.User) *models.User {
	for _, d := range m.drivers {
		if d.UserID == u.ID {
			d := d
			u.Driver = &d
			break
		}
	}
	return &u
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return m.withDriver(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.withDriver(u), nil
}

func (m *Memory) CreateVehicle(_ context.Context, v *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.vehicles {
		if strings.EqualFold(existing.Registration, v.Registration) {
			return ErrConflict
		}
	}
	v.ID = m.id()
	v.CreatedAt = time.Now().UTC()
	m.vehicles[v.ID] = *v
	return nil
}

func (m *Memory) ListVehicles(_ context.Context) ([]models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) FindVehicle(_ context.Context, id uint) (*models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (m *Memory) SetVehicleInService(_ context.Context, id uint, inService bool) (*models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	v.InService = inService
	m.vehicles[id] = v
	return &v, nil
}

// hydrate fills the shift associations the gorm store would preload.
func (m *Memory) hydrate(s models.Shift) models.Shift {
	s.Driver = m.drivers[s.DriverID]
	if s.VehicleID != nil {
		if v, ok := m.vehicles[*s.VehicleID]; ok {
			s.Vehicle = &v
		}
	}
	return s
}

func (m *Memory) ActiveShifts(_ context.Context) ([]models.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Shift
	for _, s := range m.shifts {
		if s.Status == models.ShiftActive {
			out = append(out, m.hydrate(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ActiveShiftForDriver(_ context.Context, driverID uint) (*models.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *models.Shift
	for _, s := range m.shifts {
		if s.DriverID != driverID || s.Status != models.ShiftActive {
			continue
		}
		if found == nil || s.StartedAt.After(found.StartedAt) {
			h := m.hydrate(s)
			found = &h
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (m *Memory) StartShift(_ context.Context, shift *models.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[shift.DriverID]; !ok {
		return ErrNotFound
	}
	if shift.Status == "" {
		shift.Status = models.ShiftActive
	}
	shift.ID = m.id()
	m.shifts[shift.ID] = *shift
	*shift = m.hydrate(*shift)
	return nil
}

func (m *Memory) EndShift(_ context.Context, shiftID uint) (*models.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[shiftID]
	if !ok {
		return nil, ErrNotFound
	}
	now := time.Now().UTC()
	s.Status = models.ShiftCompleted
	s.EndedAt = &now
	m.shifts[shiftID] = s
	h := m.hydrate(s)
	return &h, nil
}

func (m *Memory) FindDriver(_ context.Context, driverID uint) (*models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[driverID]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *Memory) FindDriverByUserID(_ context.Context, userID uint) (*models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.UserID == userID {
			d := d
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) RecentLocations(_ context.Context, driverID uint, limit int) ([]models.LocationLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.LocationLog
	for _, l := range m.logs {
		if l.DriverID == driverID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *Memory) SaveLocation(_ context.Context, log *models.LocationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = m.id()
	log.CreatedAt = time.Now().UTC()
	m.logs = append(m.logs, *log)
	return nil
}
