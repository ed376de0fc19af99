package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SlugifyAuthor derives a URL-safe slug from a free-text author name:
// accents are folded away, everything is lower-cased, and runs of
// non-alphanumeric characters collapse to single hyphens. The derivation is
// deterministic so the same author name always maps to the same profile.
func SlugifyAuthor(name string) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	prevDash := false
	for _, r := range norm.NFKD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue // combining mark from decomposition
		}
		r = unicode.ToLower(r)
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
