package models

import (
	"time"
)

type Broadcast struct {
	ID          string `gorm:"primaryKey;size:36"`
	MessageText string `gorm:"type:text;not null"`
	SentCount   int    `gorm:"not null;default:0"`
	TotalCount  int    `gorm:"not null;default:0"`
	IsCompleted bool   `gorm:"default:false"`
	CreatedAt   time.Time
}
