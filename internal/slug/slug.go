// Package slug turns human-readable names into URL identifiers.
package slug

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a name has no transliterable characters.
const Fallback = "item"

// Fold lowercases s and strips diacritics ("Compactação" -> "compactacao").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Make normalizes s into a lowercase, hyphen-separated ASCII slug.
func Make(s string) string {
	var b strings.Builder
	pendingHyphen := false
	emit := func(s string) {
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteString(s)
	}
	for _, r := range Fold(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			emit(string(r))
		case r == 'ß':
			emit("ss")
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/' || r == '.':
			pendingHyphen = true
		}
	}
	if b.Len() == 0 {
		return Fallback
	}
	return b.String()
}

// Candidate returns the slug to try on the given attempt: the base itself
// first, then base-<unixtime>, then base-<unixtime>-<n>.
func Candidate(base string, attempt int, now time.Time) string {
	switch attempt {
	case 0:
		return base
	case 1:
		return base + "-" + strconv.FormatInt(now.Unix(), 10)
	default:
		return base + "-" + strconv.FormatInt(now.Unix(), 10) + "-" + strconv.Itoa(attempt)
	}
}
