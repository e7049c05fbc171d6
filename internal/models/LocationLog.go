package models

import (
	"time"

	"gorm.io/gorm"

	"fleet_portal/internal/motion"
)

type LocationLog struct {
	gorm.Model
	ShiftID   uint      `json:"shift_id" gorm:"index"`
	DriverID  uint      `json:"driver_id" gorm:"index:idx_location_driver_ts"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"` // GPS accuracy in meters
	Speed     *float64  `json:"speed,omitempty"`    // m/s as reported by the device
	Heading   *float64  `json:"heading,omitempty"`  // degrees, 0 = north
	Timestamp time.Time `json:"timestamp" gorm:"index:idx_location_driver_ts"`
}

// Sample converts the log row into the engine's input type.
func (l LocationLog) Sample() motion.Sample {
	return motion.Sample{
		Latitude:             l.Latitude,
		Longitude:            l.Longitude,
		Timestamp:            l.Timestamp,
		AccuracyMeters:       l.Accuracy,
		HeadingDegrees:       l.Heading,
		SpeedMetersPerSecond: l.Speed,
	}
}

// SamplesOf converts logs in order.
func SamplesOf(logs []LocationLog) []motion.Sample {
	out := make([]motion.Sample, len(logs))
	for i, l := range logs {
		out[i] = l.Sample()
	}
	return out
}
