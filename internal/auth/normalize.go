package auth

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeIdentifier canonicalizes a login identifier so registration and
// login agree on the same key: trim whitespace, decompose and strip
// combining marks, lowercase. "Ana@X.com " and "ana@x.com" normalize to the
// same string.
func NormalizeIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)), // Mn: Mark, Nonspacing
		norm.NFC,
	)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	return strings.ToLower(s)
}
