package refcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLength(t *testing.T) {
	code, err := Generate(8)
	require.NoError(t, err)
	assert.Len(t, code, 8)

	code, err = Generate(12)
	require.NoError(t, err)
	assert.Len(t, code, 12)

	// Zero falls back to the default.
	code, err = Generate(0)
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)
}

func TestGenerateAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate(8)
		require.NoError(t, err)
		for _, c := range code {
			assert.Contains(t, alphabet, string(c))
		}
		assert.Equal(t, strings.ToUpper(code), code)
	}
}

func TestGenerateNotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := Generate(8)
		require.NoError(t, err)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"AB12CD34", true},
		{"abc", true},
		{"with_underscore", true},
		{"ab", false},
		{"", false},
		{strings.Repeat("A", 21), false},
		{"has space", false},
		{"has-dash", false},
		{"/start", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValid(tt.code), "code %q", tt.code)
	}
}

func TestShareLink(t *testing.T) {
	assert.Equal(t, "https://t.me/mybot?start=AB12CD34", ShareLink("mybot", "AB12CD34"))
}

func TestParseStartPayload(t *testing.T) {
	assert.Equal(t, "AB12CD34", ParseStartPayload("AB12CD34"))
	assert.Equal(t, "AB12CD34", ParseStartPayload("AB12CD34_campaign"))
	assert.Equal(t, "", ParseStartPayload(""))
}
