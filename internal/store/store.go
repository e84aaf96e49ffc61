// Package store is the persistence layer for accounts, referral links,
// redemptions and broadcasts. Every mutating operation is transactional:
// it either fully applies or fully rolls back. Uniqueness rules (link code,
// one redemption per referred user and code) live in database constraints,
// not in application-level checks.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"referral-bot/internal/models"
	"referral-bot/internal/refcode"
)

// maxCodeAttempts bounds regeneration when a fresh code collides with an
// existing one.
const maxCodeAttempts = 5

type Store struct {
	db         *gorm.DB
	codeLength int
}

func New(db *gorm.DB, codeLength int) *Store {
	if codeLength <= 0 {
		codeLength = refcode.DefaultLength
	}
	return &Store{db: db, codeLength: codeLength}
}

// GetOrCreateAccount returns the account for id, inserting it with zero
// points on first contact. Calling it twice with the same id is a no-op.
// A concurrent caller racing the insert loses to the unique index on
// external_id and gets the winner's row back.
func (s *Store) GetOrCreateAccount(id, username string) (*models.User, error) {
	var user models.User
	err := s.db.Where("external_id = ?", id).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up account %s: %w", id, err)
	}

	if username == "" {
		username = defaultUsername(id)
	}
	now := time.Now().UTC()
	user = models.User{
		ExternalID:   id,
		Username:     username,
		Points:       0,
		IsActive:     true,
		JoinedAt:     now,
		LastActivity: now,
	}
	err = s.db.Create(&user).Error
	if err == nil {
		return &user, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return s.GetAccount(id)
	}
	return nil, fmt.Errorf("failed to create account %s: %w", id, err)
}

func (s *Store) GetAccount(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("external_id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load account %s: %w", id, err)
	}
	return &user, nil
}

// CreditPoints adds delta to the account's balance and touches its activity
// timestamp. The update is a single read-modify-write statement so concurrent
// credits never lose an update.
func (s *Store) CreditPoints(id string, delta int) (*models.User, error) {
	res := s.db.Model(&models.User{}).
		Where("external_id = ?", id).
		Updates(map[string]interface{}{
			"points":        gorm.Expr("points + ?", delta),
			"last_activity": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to credit account %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetAccount(id)
}

// CreateOrGetActiveLink returns the account's active referral link, creating
// one on first request. Code collisions trigger regeneration up to
// maxCodeAttempts before giving up with ErrExhaustedRetries; losing an
// insert race to a concurrent issuer for the same account returns the
// winner's link.
func (s *Store) CreateOrGetActiveLink(accountID string) (*models.ReferralLink, error) {
	link, err := s.activeLink(accountID)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := refcode.Generate(s.codeLength)
		if err != nil {
			return nil, err
		}

		fresh := models.ReferralLink{
			UserID:   accountID,
			Code:     code,
			IsActive: true,
		}
		err = s.db.Create(&fresh).Error
		if err == nil {
			return &fresh, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Either a concurrent issuer won the per-account active
			// index, or the code itself collided. The former ends the
			// call; the latter retries with a new code.
			if existing, lookupErr := s.activeLink(accountID); lookupErr == nil {
				return existing, nil
			} else if !errors.Is(lookupErr, ErrNotFound) {
				return nil, lookupErr
			}
			continue
		}
		return nil, fmt.Errorf("failed to create link for %s: %w", accountID, err)
	}
	return nil, ErrExhaustedRetries
}

func (s *Store) activeLink(accountID string) (*models.ReferralLink, error) {
	var link models.ReferralLink
	err := s.db.Where("user_id = ? AND is_active = ?", accountID, true).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up link for %s: %w", accountID, err)
	}
	return &link, nil
}

// FindLinkByCode resolves an active link; inactive links are invisible here.
func (s *Store) FindLinkByCode(code string) (*models.ReferralLink, error) {
	var link models.ReferralLink
	err := s.db.Where("code = ? AND is_active = ?", code, true).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up code %s: %w", code, err)
	}
	return &link, nil
}

// RecordRedemption inserts the redemption record and increments the link's
// uses count in one transaction. A second redemption of the same code by the
// same referred account hits the composite unique index and returns
// ErrConflict with nothing written.
func (s *Store) RecordRedemption(referrerID, referredID, code string, points int) (*models.Referral, error) {
	referral := models.Referral{
		ReferrerID:    referrerID,
		ReferredID:    referredID,
		CodeUsed:      code,
		PointsAwarded: points,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&referral).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return fmt.Errorf("failed to record redemption: %w", err)
		}

		if err := tx.Model(&models.ReferralLink{}).
			Where("code = ?", code).
			Update("uses_count", gorm.Expr("uses_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to increment link uses: %w", err)
		}

		return tx.Model(&models.User{}).
			Where("external_id = ?", referredID).
			Update("last_activity", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

func (s *Store) CountReferrals(accountID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Referral{}).Where("referrer_id = ?", accountID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals for %s: %w", accountID, err)
	}
	return count, nil
}

// TopAccountsByPoints returns up to limit accounts ordered by points
// descending. Ties go to the earlier-created account.
func (s *Store) TopAccountsByPoints(limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.Order("points DESC, id ASC").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list top accounts: %w", err)
	}
	return users, nil
}

func (s *Store) ListAccounts(limit int) ([]models.User, error) {
	var users []models.User
	if err := s.db.Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return users, nil
}

// Stats returns the totals the admin surface exposes.
func (s *Store) Stats() (totalAccounts, totalRedemptions int64, err error) {
	if err = s.db.Model(&models.User{}).Count(&totalAccounts).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	if err = s.db.Model(&models.Referral{}).Count(&totalRedemptions).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count redemptions: %w", err)
	}
	return totalAccounts, totalRedemptions, nil
}

// ActiveAccountCount counts accounts with activity in the last N days.
func (s *Store) ActiveAccountCount(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var count int64
	err := s.db.Model(&models.User{}).Where("last_activity >= ?", cutoff).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active accounts: %w", err)
	}
	return count, nil
}

func (s *Store) CreateBroadcast(text string) (*models.Broadcast, error) {
	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipients: %w", err)
	}

	broadcast := models.Broadcast{
		ID:          uuid.New().String(),
		MessageText: text,
		TotalCount:  int(total),
	}
	if err := s.db.Create(&broadcast).Error; err != nil {
		return nil, fmt.Errorf("failed to create broadcast: %w", err)
	}
	return &broadcast, nil
}

func (s *Store) PendingBroadcasts() ([]models.Broadcast, error) {
	var broadcasts []models.Broadcast
	err := s.db.Where("is_completed = ?", false).Find(&broadcasts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending broadcasts: %w", err)
	}
	return broadcasts, nil
}

func (s *Store) IncrementBroadcastSent(id string) error {
	err := s.db.Model(&models.Broadcast{}).
		Where("id = ?", id).
		Update("sent_count", gorm.Expr("sent_count + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to update broadcast %s: %w", id, err)
	}
	return nil
}

func (s *Store) MarkBroadcastCompleted(id string) error {
	err := s.db.Model(&models.Broadcast{}).
		Where("id = ?", id).
		Update("is_completed", true).Error
	if err != nil {
		return fmt.Errorf("failed to complete broadcast %s: %w", id, err)
	}
	return nil
}

func defaultUsername(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "user_" + id
}
