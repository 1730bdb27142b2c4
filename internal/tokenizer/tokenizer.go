// Package tokenizer normalizes text into terms. Documents and query strings
// must go through the same pipeline so that term identity holds between the
// corpus and queries.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize converts text into an ordered sequence of normalized tokens:
// lowercased, split on runs of non-letter/non-digit runes. Duplicates are
// preserved in order.
func Tokenize(text string) []string {
	tokens := make([]string, 0)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// Counts tokenizes text and returns each term with its raw occurrence count.
func Counts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}
	return counts
}

// Normalize normalizes a single word the same way Tokenize does. When the word
// tokenizes to several terms only the first is returned; an empty string means
// the word carries no indexable content.
func Normalize(word string) string {
	tokens := Tokenize(word)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}
