package ingest

import (
	"strings"
	"unicode"
)

// NormalizeClaim trims a claim and collapses internal whitespace runs to one space.
func NormalizeClaim(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// NormalizeClaims normalizes each claim and drops the empty ones.
func NormalizeClaims(claims []string) []string {
	out := make([]string, 0, len(claims))
	for _, c := range claims {
		if c = NormalizeClaim(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
