// Package referral enforces the redemption rules on top of the store:
// single use per (referred account, code), no self-referral, one credit to
// the referrer per successful redemption.
package referral

import (
	"errors"
	"fmt"
	"log"

	"referral-bot/internal/models"
	"referral-bot/internal/store"
)

// Outcome classifies what a redemption attempt did. These are business
// results communicated to the end user, not errors.
type Outcome string

const (
	OutcomeCredited        Outcome = "credited"
	OutcomeAlreadyRedeemed Outcome = "already_redeemed"
	OutcomeSelfReferral    Outcome = "self_referral"
	OutcomeCodeNotFound    Outcome = "code_not_found"
)

// Result carries the outcome of a Redeem call. Points and ReferrerID are
// set only for OutcomeCredited.
type Result struct {
	Outcome    Outcome
	Points     int
	ReferrerID string
}

// Ledger is the slice of the store the engine needs.
type Ledger interface {
	GetOrCreateAccount(id, username string) (*models.User, error)
	CreateOrGetActiveLink(accountID string) (*models.ReferralLink, error)
	FindLinkByCode(code string) (*models.ReferralLink, error)
	RecordRedemption(referrerID, referredID, code string, points int) (*models.Referral, error)
	CreditPoints(id string, delta int) (*models.User, error)
}

type Engine struct {
	ledger            Ledger
	pointsPerReferral int
}

func NewEngine(ledger Ledger, pointsPerReferral int) *Engine {
	return &Engine{
		ledger:            ledger,
		pointsPerReferral: pointsPerReferral,
	}
}

// Redeem applies code on behalf of referredID. The store's unique constraint
// on (referred, code) decides races: of N concurrent attempts exactly one
// sees OutcomeCredited, the rest OutcomeAlreadyRedeemed, and the referrer is
// credited exactly once.
func (e *Engine) Redeem(referredID, code string) (*Result, error) {
	link, err := e.ledger.FindLinkByCode(code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &Result{Outcome: OutcomeCodeNotFound}, nil
		}
		return nil, fmt.Errorf("failed to resolve code: %w", err)
	}

	if link.UserID == referredID {
		return &Result{Outcome: OutcomeSelfReferral}, nil
	}

	// First contact with the bot may well be pasting someone's code.
	if _, err := e.ledger.GetOrCreateAccount(referredID, ""); err != nil {
		return nil, err
	}

	_, err = e.ledger.RecordRedemption(link.UserID, referredID, code, e.pointsPerReferral)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return &Result{Outcome: OutcomeAlreadyRedeemed}, nil
		}
		return nil, err
	}

	if _, err := e.ledger.CreditPoints(link.UserID, e.pointsPerReferral); err != nil {
		// The redemption record exists; surface the missing credit rather
		// than pretending the whole attempt failed.
		log.Printf("Redemption recorded but credit failed for referrer %s: %v", link.UserID, err)
		return nil, fmt.Errorf("failed to credit referrer %s: %w", link.UserID, err)
	}

	return &Result{
		Outcome:    OutcomeCredited,
		Points:     e.pointsPerReferral,
		ReferrerID: link.UserID,
	}, nil
}

// IssueLink hands out the account's shareable link, creating it on first use.
// Repeated calls return the same code.
func (e *Engine) IssueLink(accountID string) (*models.ReferralLink, error) {
	if _, err := e.ledger.GetOrCreateAccount(accountID, ""); err != nil {
		return nil, err
	}
	return e.ledger.CreateOrGetActiveLink(accountID)
}
