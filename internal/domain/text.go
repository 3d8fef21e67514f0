package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText strips combining diacritics, lowercases and trims, so user
// input can be compared against upstream copy regardless of accents.
// Idempotent: normalizing an already-normalized string is a no-op.
func NormalizeText(value string) string {
	stripped, _, err := transform.String(diacriticStripper, value)
	if err != nil {
		stripped = value
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}
