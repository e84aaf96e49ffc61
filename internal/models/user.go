package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	ExternalID   string `gorm:"size:64;uniqueIndex;not null"`
	Username     string `gorm:"size:255"`
	Points       int    `gorm:"not null;default:0"`
	IsActive     bool   `gorm:"default:true"`
	JoinedAt     time.Time
	LastActivity time.Time
}
