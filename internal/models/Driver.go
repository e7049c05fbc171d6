package models

import "gorm.io/gorm"

// Driver is the profile of a user with the driver role.
type Driver struct {
	gorm.Model
	UserID        uint   `json:"user_id" gorm:"uniqueIndex"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"license_number"`
}
