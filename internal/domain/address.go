package domain

import (
	"strings"
	"unicode"
)

// NormalizeAddress converts a free-text address into a query-safe token for
// geocoding requests. Letters and digits are kept, each run of whitespace
// becomes a single '+' separator, and all other characters are dropped. The
// function is total: any input, including the empty string, yields a result.
func NormalizeAddress(raw string) string {
	words := strings.FieldsFunc(raw, unicode.IsSpace)

	var b strings.Builder
	b.Grow(len(raw))
	for _, word := range words {
		var kept strings.Builder
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				kept.WriteRune(r)
			}
		}
		if kept.Len() == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('+')
		}
		b.WriteString(kept.String())
	}
	return b.String()
}
