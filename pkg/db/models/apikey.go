package models

import "time"

// ApiKey authorizes privileged API requests. Keys never expire.
type ApiKey struct {
	ID      uint   `gorm:"primaryKey"`
	Key     string `gorm:"column:apikey;type:text;not null;uniqueIndex"`
	Comment string `gorm:"type:text"`

	CreatedAt time.Time
}
