package motion

import (
	"math"
	"time"
)

const (
	// TrailingWindow bounds how many recent samples stationary detection inspects.
	TrailingWindow = 20
	// StationaryRadiusMeters is the radius around the latest fix that counts as "not moved".
	StationaryRadiusMeters = 50.0
)

// StationaryMinutes reports for how many whole minutes the driver has stayed
// within StationaryRadiusMeters of the latest sample.
//
// Only the last TrailingWindow samples are examined. The run is the unbroken
// streak walking backward from the latest sample: the first sample outside the
// radius ends it, even if older samples were close again. The last element of
// history is the anchor regardless of its timestamp.
func StationaryMinutes(history []Sample) (int, error) {
	if len(history) < 2 {
		return 0, nil
	}
	recent := Trailing(history, TrailingWindow)
	start, err := stationaryRunStart(recent)
	if err != nil {
		return 0, err
	}
	return wholeMinutes(recent[len(recent)-1].Timestamp.Sub(recent[start].Timestamp)), nil
}

// stationaryRunStart returns the index in recent where the stationary run begins.
func stationaryRunStart(recent []Sample) (int, error) {
	last := len(recent) - 1
	anchor := recent[last].Coordinate()
	start := last
	for i := last - 1; i >= 0; i-- {
		d, err := DistanceMeters(anchor, recent[i].Coordinate())
		if err != nil {
			return 0, err
		}
		if d >= StationaryRadiusMeters {
			break
		}
		start = i
	}
	return start, nil
}

func wholeMinutes(d time.Duration) int {
	m := d.Minutes()
	if m < 1 {
		return 0
	}
	return int(math.Floor(m))
}

// StationaryOptions tunes IsStationary.
type StationaryOptions struct {
	Window       int
	RadiusMeters float64
	MinDuration  time.Duration
}

// DefaultStationaryOptions matches the portal's dwell check: 5 samples, 50 m, 10 minutes.
func DefaultStationaryOptions() StationaryOptions {
	return StationaryOptions{
		Window:       5,
		RadiusMeters: StationaryRadiusMeters,
		MinDuration:  10 * time.Minute,
	}
}

// IsStationary reports whether the last opts.Window samples all lie within
// opts.RadiusMeters of the first of them and span at least opts.MinDuration.
func IsStationary(history []Sample, opts StationaryOptions) (bool, error) {
	recent := Trailing(history, opts.Window)
	if len(recent) < 2 {
		return false, nil
	}
	center := recent[0].Coordinate()
	for _, s := range recent {
		d, err := DistanceMeters(center, s.Coordinate())
		if err != nil {
			return false, err
		}
		if d >= opts.RadiusMeters {
			return false, nil
		}
	}
	span := recent[len(recent)-1].Timestamp.Sub(recent[0].Timestamp)
	return span >= opts.MinDuration, nil
}
