package tracking

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fleet_portal/internal/motion"
)

// VehicleRef is the vehicle summary shown next to a driver.
type VehicleRef struct {
	ID           uint   `json:"id"`
	Registration string `json:"registration"`
	Type         string `json:"type"`
}

// DriverView is one row of the live board.
type DriverView struct {
	DriverID          uint           `json:"driver_id"`
	FullName          string         `json:"full_name"`
	Email             string         `json:"email"`
	Vehicle           *VehicleRef    `json:"vehicle,omitempty"`
	ShiftID           uint           `json:"shift_id,omitempty"`
	ShiftStartedAt    *time.Time     `json:"shift_started_at,omitempty"`
	Latest            *motion.Sample `json:"latest,omitempty"`
	Status            motion.Status  `json:"status"`
	StatusLabel       string         `json:"status_label"`
	MarkerColor       string         `json:"marker_color"`
	StationaryMinutes int            `json:"stationary_minutes"`
}

// DriverDetail backs the driver info panel.
type DriverDetail struct {
	DriverView
	SpeedKmh float64         `json:"speed_kmh"`
	Heading  string          `json:"heading,omitempty"`
	Dwelling bool            `json:"dwelling"`
	LastSeen *time.Time      `json:"last_seen,omitempty"`
	Trail    []motion.Sample `json:"trail"`
}

// Counts are the board header totals.
type Counts struct {
	Moving     int `json:"moving"`
	Stationary int `json:"stationary"`
	Offline    int `json:"offline"`
}

// Board is the whole live-tracking view at one instant.
type Board struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Drivers     []DriverView `json:"drivers"`
	Counts      Counts       `json:"counts"`
}

// Update is pushed to monitors whenever a driver reports a new fix.
type Update struct {
	Type   string     `json:"type"`
	Driver DriverView `json:"driver"`
}

// LocationInput is a fix reported by a driver device.
type LocationInput struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"` // meters
	Speed     *float64  `json:"speed,omitempty"`    // m/s
	Heading   *float64  `json:"heading,omitempty"`  // degrees
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts RFC3339 timestamps with or without a zone suffix;
// zone-less values are taken as UTC. A missing timestamp is left zero.
func (in *LocationInput) UnmarshalJSON(data []byte) error {
	type alias LocationInput
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{alias: (*alias)(in)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts := strings.TrimSpace(aux.Timestamp)
	if ts == "" {
		in.Timestamp = time.Time{}
		return nil
	}
	if !hasZone(ts) {
		ts += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", aux.Timestamp, err)
	}
	in.Timestamp = t
	return nil
}

func hasZone(ts string) bool {
	if strings.HasSuffix(ts, "Z") || strings.HasSuffix(ts, "z") {
		return true
	}
	if len(ts) < 6 {
		return false
	}
	return strings.ContainsAny(ts[len(ts)-6:], "+-")
}

// Coordinate returns the reported position.
func (in LocationInput) Coordinate() motion.Coordinate {
	return motion.Coordinate{Lat: in.Latitude, Lon: in.Longitude}
}
