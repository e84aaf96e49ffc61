package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength mirrors the platform's message size cap.
const MaxMessageLength = 4096

var usernamePattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeMessage strips a user-supplied text down to something safe to echo
// back: truncated, HTML-escaped, with null bytes and control characters
// removed (newline and tab survive).
func SanitizeMessage(text string) string {
	if text == "" {
		return ""
	}

	if len(text) > MaxMessageLength {
		cut := MaxMessageLength
		// Back off to a rune boundary so the cut never splits a multi-byte
		// character.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	text = html.EscapeString(text)
	text = strings.ReplaceAll(text, "\x00", "")

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r >= 32 || r == '\n' || r == '\t' {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// SanitizeUsername reduces a display name to letters, digits and underscore.
// Empty results fall back to "user" so accounts never get a blank name.
func SanitizeUsername(username string) string {
	username = usernamePattern.ReplaceAllString(username, "")
	if len(username) > 32 {
		username = username[:32]
	}
	if username == "" {
		return "user"
	}
	return username
}
