package models

import "time"

// Device is a catalog entry loaded from the devices feed.
type Device struct {
	Model       string `gorm:"primaryKey;type:text"   json:"model"`
	OEM         string `gorm:"type:text;not null"     json:"oem"`
	Name        string `gorm:"type:text;not null"     json:"name"`
	HasRecovery bool   `gorm:"not null"               json:"has_recovery"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
