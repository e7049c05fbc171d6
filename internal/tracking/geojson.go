package tracking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"fleet_portal/internal/motion"
)

// LiveMap renders the latest fix of every active driver as GeoJSON points.
// Drivers that have not reported yet are left off the map.
func (s *Service) LiveMap(ctx context.Context, now time.Time) (*geojson.FeatureCollection, error) {
	board, err := s.Board(ctx, now)
	if err != nil {
		return nil, err
	}
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, v := range board.Drivers {
		if v.Latest == nil {
			continue
		}
		fc.Features = append(fc.Features, driverFeature(v))
	}
	return fc, nil
}

func driverFeature(v DriverView) *geojson.Feature {
	props := map[string]interface{}{
		"driver_id":          v.DriverID,
		"full_name":          v.FullName,
		"status":             v.Status.String(),
		"status_label":       v.StatusLabel,
		"marker_color":       v.MarkerColor,
		"stationary_minutes": v.StationaryMinutes,
		"timestamp":          v.Latest.Timestamp.Format(time.RFC3339),
	}
	if v.Vehicle != nil {
		props["registration"] = v.Vehicle.Registration
	}
	if v.Latest.HeadingDegrees != nil {
		props["heading"] = motion.CompassLabel(*v.Latest.HeadingDegrees)
	}
	return &geojson.Feature{
		ID:         strconv.FormatUint(uint64(v.DriverID), 10),
		Geometry:   geom.NewPointFlat(geom.XY, []float64{v.Latest.Longitude, v.Latest.Latitude}),
		Properties: props,
	}
}

// Trail renders the trailing window of a driver as a LineString (a Point when
// only one fix exists).
func (s *Service) Trail(ctx context.Context, driverID uint) (*geojson.Feature, error) {
	logs, err := s.store.RecentLocations(ctx, driverID, motion.TrailingWindow)
	if err != nil {
		return nil, fmt.Errorf("load locations for driver %d: %w", driverID, err)
	}
	if len(logs) == 0 {
		return nil, ErrNoLocations
	}

	flat := make([]float64, 0, 2*len(logs))
	for _, l := range logs {
		flat = append(flat, l.Longitude, l.Latitude)
	}
	var g geom.T
	if len(logs) == 1 {
		g = geom.NewPointFlat(geom.XY, flat)
	} else {
		g = geom.NewLineStringFlat(geom.XY, flat)
	}
	return &geojson.Feature{
		ID:       strconv.FormatUint(uint64(driverID), 10),
		Geometry: g,
		Properties: map[string]interface{}{
			"driver_id": driverID,
			"from":      logs[0].Timestamp.Format(time.RFC3339),
			"to":        logs[len(logs)-1].Timestamp.Format(time.RFC3339),
			"points":    len(logs),
		},
	}, nil
}
