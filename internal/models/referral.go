package models

import (
	"time"
)

// Referral is an immutable record of one code redemption. The composite
// unique index makes the (referred user, code) pair insert-or-conflict.
type Referral struct {
	ID            uint   `gorm:"primaryKey"`
	ReferrerID    string `gorm:"size:64;index;not null"`
	ReferredID    string `gorm:"size:64;not null;uniqueIndex:idx_referrals_referred_code"`
	CodeUsed      string `gorm:"size:32;not null;uniqueIndex:idx_referrals_referred_code"`
	PointsAwarded int    `gorm:"not null"`
	CreatedAt     time.Time
}
