package session

import (
	"strings"
	"unicode"
)

// Tokenize splits text into a lowercased set of distinct words. Words are
// runs of characters separated by whitespace or control characters; empty
// tokens are dropped. Original casing is preserved elsewhere (the baseline
// keeps the raw text alongside its word set).
func Tokenize(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) {
		words[strings.ToLower(tok)] = struct{}{}
	}
	return words
}

// NewWordCount returns how many words of the current set are absent from the
// baseline set.
func NewWordCount(current, baseline map[string]struct{}) int {
	n := 0
	for w := range current {
		if _, ok := baseline[w]; !ok {
			n++
		}
	}
	return n
}

// DeletedWordCount returns how many baseline words no longer appear in the
// current set.
func DeletedWordCount(baseline, current map[string]struct{}) int {
	n := 0
	for w := range baseline {
		if _, ok := current[w]; !ok {
			n++
		}
	}
	return n
}
