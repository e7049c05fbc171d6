// Package motion classifies driver movement from a time-ordered GPS history.
//
// Every function here is pure: histories are read, never retained or mutated,
// and the evaluation instant is always passed in by the caller.
package motion

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidCoordinate is returned when a latitude or longitude is outside its valid range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks latitude is within [-90, 90] and longitude within [-180, 180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// Sample is one GPS reading for a driver.
type Sample struct {
	Latitude             float64   `json:"latitude"`
	Longitude            float64   `json:"longitude"`
	Timestamp            time.Time `json:"timestamp"`
	AccuracyMeters       *float64  `json:"accuracy,omitempty"`
	HeadingDegrees       *float64  `json:"heading,omitempty"`
	SpeedMetersPerSecond *float64  `json:"speed,omitempty"`
}

// Coordinate returns the sample position.
func (s Sample) Coordinate() Coordinate {
	return Coordinate{Lat: s.Latitude, Lon: s.Longitude}
}

// Trailing returns the last n samples of history without copying.
func Trailing(history []Sample, n int) []Sample {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
