package models

import (
	"time"
)

// ReferralLink carries one shareable code. The partial unique index on the
// owner allows many inactive links but at most one active one per account.
type ReferralLink struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:64;not null;uniqueIndex:idx_links_owner_active,where:is_active"`
	Code      string `gorm:"size:32;uniqueIndex;not null"`
	UsesCount int    `gorm:"not null;default:0"`
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time
}
