// Package tracking runs the live driver board on top of the motion engine.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"fleet_portal/internal/models"
	"fleet_portal/internal/motion"
	"fleet_portal/internal/store"
)

var (
	ErrNoActiveShift = errors.New("driver has no active shift")
	ErrUnknownDriver = errors.New("driver not found")
	ErrNoLocations   = errors.New("driver has no recorded locations")
)

// headingMinDistance is how far a driver must move before a heading is derived
// from consecutive fixes.
const headingMinDistance = 5.0

// loadConcurrency caps parallel history queries while building the board.
const loadConcurrency = 8

// Service builds board views and ingests driver fixes.
type Service struct {
	store store.TrackingStore
	hub   *Hub
}

// NewService wires the store and (optionally nil) hub.
func NewService(st store.TrackingStore, hub *Hub) *Service {
	return &Service{store: st, hub: hub}
}

// Board classifies every driver on an active shift as of now.
func (s *Service) Board(ctx context.Context, now time.Time) (*Board, error) {
	shifts, err := s.store.ActiveShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active shifts: %w", err)
	}

	views := make([]DriverView, len(shifts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i := range shifts {
		i := i
		g.Go(func() error {
			logs, err := s.store.RecentLocations(gctx, shifts[i].DriverID, motion.TrailingWindow)
			if err != nil {
				return fmt.Errorf("load locations for driver %d: %w", shifts[i].DriverID, err)
			}
			view, err := buildView(&shifts[i], shifts[i].Driver, models.SamplesOf(logs), now)
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	board := &Board{GeneratedAt: now, Drivers: views}
	for _, v := range views {
		switch {
		case v.Status == motion.Moving:
			board.Counts.Moving++
		case v.Status.IsStationary():
			board.Counts.Stationary++
		case v.Status == motion.Offline:
			board.Counts.Offline++
		}
	}
	return board, nil
}

// Alerts returns stationary drivers, longest stationary first.
func (s *Service) Alerts(ctx context.Context, now time.Time) ([]DriverView, error) {
	board, err := s.Board(ctx, now)
	if err != nil {
		return nil, err
	}
	alerts := make([]DriverView, 0, len(board.Drivers))
	for _, v := range board.Drivers {
		if v.Status.IsStationary() {
			alerts = append(alerts, v)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].StationaryMinutes != alerts[j].StationaryMinutes {
			return alerts[i].StationaryMinutes > alerts[j].StationaryMinutes
		}
		return alerts[i].DriverID < alerts[j].DriverID
	})
	return alerts, nil
}

// Driver returns the info-panel view of one driver, with or without an active shift.
func (s *Service) Driver(ctx context.Context, driverID uint, now time.Time) (*DriverDetail, error) {
	var (
		shift  *models.Shift
		driver models.Driver
	)
	active, err := s.store.ActiveShiftForDriver(ctx, driverID)
	switch {
	case err == nil:
		shift = active
		driver = active.Driver
	case errors.Is(err, store.ErrNotFound):
		d, err := s.store.FindDriver(ctx, driverID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownDriver
		}
		if err != nil {
			return nil, fmt.Errorf("load driver %d: %w", driverID, err)
		}
		driver = *d
	default:
		return nil, fmt.Errorf("load shift for driver %d: %w", driverID, err)
	}

	logs, err := s.store.RecentLocations(ctx, driverID, motion.TrailingWindow)
	if err != nil {
		return nil, fmt.Errorf("load locations for driver %d: %w", driverID, err)
	}
	history := models.SamplesOf(logs)

	view, err := buildView(shift, driver, history, now)
	if err != nil {
		return nil, err
	}
	snap, err := motion.Summarize(history, now)
	if err != nil {
		return nil, fmt.Errorf("summarize driver %d: %w", driverID, err)
	}

	detail := &DriverDetail{
		DriverView: view,
		SpeedKmh:   snap.SpeedKmh,
		Heading:    snap.Heading,
		Dwelling:   snap.Dwelling,
		Trail:      history,
	}
	if len(history) > 0 {
		seen := snap.LastSeen
		detail.LastSeen = &seen
	}
	return detail, nil
}

// Ingest records a fix from driverID, reclassifies the driver and notifies monitors.
func (s *Service) Ingest(ctx context.Context, driverID uint, in LocationInput, now time.Time) (*DriverView, error) {
	if err := in.Coordinate().Validate(); err != nil {
		return nil, err
	}
	shift, err := s.store.ActiveShiftForDriver(ctx, driverID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoActiveShift
	}
	if err != nil {
		return nil, fmt.Errorf("load shift for driver %d: %w", driverID, err)
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = now
	}

	logs, err := s.store.RecentLocations(ctx, driverID, motion.TrailingWindow)
	if err != nil {
		return nil, fmt.Errorf("load locations for driver %d: %w", driverID, err)
	}

	entry := models.LocationLog{
		ShiftID:   shift.ID,
		DriverID:  driverID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Accuracy:  in.Accuracy,
		Speed:     in.Speed,
		Heading:   in.Heading,
		Timestamp: in.Timestamp.UTC(),
	}
	// Late fixes are slotted in by timestamp, the order RecentLocations and the board use.
	at := sort.Search(len(logs), func(i int) bool { return logs[i].Timestamp.After(entry.Timestamp) })
	if entry.Heading == nil && at > 0 && logs[at-1].Timestamp.Before(entry.Timestamp) {
		entry.Heading = derivedHeading(logs[at-1], entry)
	}
	if err := s.store.SaveLocation(ctx, &entry); err != nil {
		return nil, fmt.Errorf("save location for driver %d: %w", driverID, err)
	}

	merged := make([]models.LocationLog, 0, len(logs)+1)
	merged = append(merged, logs[:at]...)
	merged = append(merged, entry)
	merged = append(merged, logs[at:]...)
	history := motion.Trailing(models.SamplesOf(merged), motion.TrailingWindow)
	view, err := buildView(shift, shift.Driver, history, now)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"driver_id":          driverID,
		"shift_id":           shift.ID,
		"status":             view.Status.String(),
		"stationary_minutes": view.StationaryMinutes,
	}).Debug("Driver location recorded.")

	if s.hub != nil {
		s.hub.Publish(Update{Type: "location", Driver: view})
	}
	return &view, nil
}

// derivedHeading is the bearing from prev to cur, or nil when the driver has
// barely moved and a bearing would be noise.
func derivedHeading(prev, cur models.LocationLog) *float64 {
	from := prev.Sample().Coordinate()
	to := cur.Sample().Coordinate()
	d, err := motion.DistanceMeters(from, to)
	if err != nil || d < headingMinDistance {
		return nil
	}
	b, err := motion.Bearing(from, to)
	if err != nil {
		return nil
	}
	return &b
}

func buildView(shift *models.Shift, driver models.Driver, history []motion.Sample, now time.Time) (DriverView, error) {
	view := DriverView{
		DriverID: driver.ID,
		FullName: driver.FullName,
		Email:    driver.Email,
	}
	if shift != nil {
		view.ShiftID = shift.ID
		started := shift.StartedAt
		view.ShiftStartedAt = &started
		if shift.Vehicle != nil {
			view.Vehicle = &VehicleRef{
				ID:           shift.Vehicle.ID,
				Registration: shift.Vehicle.Registration,
				Type:         shift.Vehicle.Type,
			}
		}
		if view.DriverID == 0 {
			view.DriverID = shift.DriverID
		}
	}

	status, err := motion.ClassifyStatus(history, now)
	if err != nil {
		return view, fmt.Errorf("classify driver %d: %w", view.DriverID, err)
	}
	minutes, err := motion.StationaryMinutes(history)
	if err != nil {
		return view, fmt.Errorf("stationary minutes for driver %d: %w", view.DriverID, err)
	}
	if len(history) > 0 {
		latest := history[len(history)-1]
		view.Latest = &latest
	}
	view.Status = status
	view.StatusLabel = status.Label()
	view.MarkerColor = status.MarkerColor()
	view.StationaryMinutes = minutes
	return view, nil
}
