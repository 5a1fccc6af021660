// Package namematch folds entity names into comparison keys. Two names match
// only when their keys are equal; there is no substring or edit-distance
// matching.
package namematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// clubAffixes are dropped as whole tokens so "Ipswich Town FC" and
// "Ipswich Town" share a key.
var clubAffixes = map[string]struct{}{
	"fc":  {},
	"afc": {},
	"cf":  {},
	"sc":  {},
}

// Normalize lowercases name, strips diacritics, turns punctuation into spaces
// and collapses whitespace.
func Normalize(name string) string {
	return normalize(name, nil)
}

// NormalizeTeam is Normalize plus removal of club affix tokens. If removing
// them would leave nothing, the affixes are kept.
func NormalizeTeam(name string) string {
	return normalize(name, clubAffixes)
}

func normalize(name string, drop map[string]struct{}) string {
	folded := foldDiacritics(name)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	if len(drop) > 0 {
		kept := tokens[:0:0]
		for _, token := range tokens {
			if _, ok := drop[token]; ok {
				continue
			}
			kept = append(kept, token)
		}
		if len(kept) > 0 {
			tokens = kept
		}
	}
	return strings.Join(tokens, " ")
}

func foldDiacritics(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// Equal reports whether two names fold to the same non-empty key.
func Equal(a, b string) bool {
	ka := Normalize(a)
	return ka != "" && ka == Normalize(b)
}
