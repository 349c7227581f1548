package pricing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nicheNormalizer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeNiche canonicalizes a niche label for comparison: lowercase,
// diacritics stripped, whitespace collapsed. Publisher tooling and order
// forms disagree on casing and accents, so rule matching goes through
// this instead of raw string equality.
func NormalizeNiche(label string) string {
	s, _, err := transform.String(nicheNormalizer, label)
	if err != nil {
		s = label
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
