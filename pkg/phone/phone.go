// Package phone normalizes phone numbers for comparison.
package phone

import "strings"

// Normalize strips whitespace, dashes, dots, and parentheses so that
// "+212 661-234-567" and "(212)661234567" compare by digits alone.
// It performs no country-code canonicalization.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '-', '.', '(', ')':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Equal reports whether two phone numbers match after normalization.
func Equal(a, b string) bool {
	return a != "" && Normalize(a) == Normalize(b)
}
