package util

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBookingCode(t *testing.T) {
	re := regexp.MustCompile(`^BOOK-[0-9A-HJKMNP-TV-Z]{8}$`)

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		code := GenerateBookingCode()
		assert.Regexp(t, re, code)
		seen[code] = true
	}
	assert.Len(t, seen, 1000)
}

func TestGenerateBookingCodeUsesFullAlphabet(t *testing.T) {
	var symbols strings.Builder
	for i := 0; i < 2000; i++ {
		symbols.WriteString(strings.TrimPrefix(GenerateBookingCode(), BookingCodePrefix))
	}

	// 16000 symbols drawn from 32 leave a vanishing chance that any one is missing.
	for _, r := range BookingCodeAlphabet {
		assert.Contains(t, symbols.String(), string(r))
	}
}

func TestGenerateBookingCodeDecodesToFortyBits(t *testing.T) {
	code := strings.TrimPrefix(GenerateBookingCode(), BookingCodePrefix)

	raw, err := bookingCodeEncoding.DecodeString(code)
	require.NoError(t, err)
	assert.Len(t, raw, 5)
}

func TestGenerateID(t *testing.T) {
	assert.Len(t, GenerateID(), 36)
	assert.NotEqual(t, GenerateID(), GenerateID())
}
