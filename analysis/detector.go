package analysis

import (
	"slices"
	"strings"
)

// Detect returns every theme with at least one keyword occurring as a
// substring of the normalized text. Substring matching lets "polish" hit
// inside "polished", and accepts the occasional false positive.
func Detect(normalized string, lex *Lexicon) ThemeSet {
	var found ThemeSet
	for _, t := range AllThemes() {
		if mentions(normalized, lex.keywords[t]) {
			found = found.With(t)
		}
	}
	return found
}

// mentions stops at the first keyword found.
func mentions(text string, keywords []string) bool {
	return slices.ContainsFunc(keywords, func(kw string) bool {
		return strings.Contains(text, kw)
	})
}
