package models

import "gorm.io/gorm"

type Vehicle struct {
	gorm.Model
	Registration string `json:"registration" gorm:"uniqueIndex;not null"`
	Type         string `json:"type"` // "van", "truck", "ute"
	InService    bool   `json:"in_service"`
}
