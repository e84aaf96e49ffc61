package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMessage(t *testing.T) {
	assert.Equal(t, "hello", SanitizeMessage("  hello  "))
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", SanitizeMessage("<b>hi</b>"))
	assert.Equal(t, "ab", SanitizeMessage("a\x00b"))
	assert.Equal(t, "a\nb", SanitizeMessage("a\nb"))
	assert.Equal(t, "ab", SanitizeMessage("a\x07b"))
	assert.Equal(t, "", SanitizeMessage(""))

	long := strings.Repeat("x", MaxMessageLength+100)
	assert.Len(t, SanitizeMessage(long), MaxMessageLength)
}

func TestSanitizeMessageTruncatesOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddles the length cap; the cut must drop the whole
	// rune instead of leaving a broken first byte behind.
	text := strings.Repeat("a", MaxMessageLength-1) + "ё" + strings.Repeat("b", 50)
	got := SanitizeMessage(text)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, MaxMessageLength-1)
	assert.True(t, strings.HasSuffix(got, "a"))
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "alice_99", SanitizeUsername("alice_99"))
	assert.Equal(t, "bob", SanitizeUsername("b@o!b"))
	assert.Equal(t, "user", SanitizeUsername(""))
	assert.Equal(t, "user", SanitizeUsername("!!!"))
	assert.Len(t, SanitizeUsername(strings.Repeat("a", 40)), 32)
}
