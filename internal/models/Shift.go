package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ShiftActive    = "active"
	ShiftCompleted = "completed"
)

// Shift is a driver's working session; location logs are recorded against the active one.
type Shift struct {
	gorm.Model
	DriverID  uint       `json:"driver_id" gorm:"index"`
	Driver    Driver     `gorm:"foreignKey:DriverID" json:"driver"`
	VehicleID *uint      `json:"vehicle_id"`
	Vehicle   *Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Status    string     `json:"status" gorm:"index;default:active"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}
