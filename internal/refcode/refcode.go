// Package refcode generates and validates short shareable referral codes.
package refcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the code length used when callers pass 0.
const DefaultLength = 8

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// Generate produces an uppercase alphanumeric code from a cryptographically
// strong source. Codes are not unique by construction; the store enforces
// uniqueness at insert time.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	var sb strings.Builder
	sb.Grow(length)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// IsValid reports whether text looks like a referral code: alphanumeric
// plus underscore, 3 to 20 characters.
func IsValid(code string) bool {
	return codePattern.MatchString(code)
}

// ShareLink builds the deep link users forward to friends.
func ShareLink(botName, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botName, code)
}

// ParseStartPayload extracts the code from a /start deep-link argument.
// The payload format is CODE or CODE_metadata; metadata is discarded.
func ParseStartPayload(payload string) string {
	if payload == "" {
		return ""
	}
	code, _, _ := strings.Cut(payload, "_")
	return code
}
