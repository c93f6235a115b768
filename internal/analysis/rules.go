package analysis

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[A-Za-z0-9']+`)

// repeatedWord is one immediately-repeated-word match inside a segment.
type repeatedWord struct {
	// Flagged is the exact matched substring, e.g. "the the".
	Flagged string
	// Suggestion is the single word that should remain.
	Suggestion string
}

// findRepeatedWords scans text for an immediately repeated word,
// case-insensitive and word-boundary matched. Matches do not overlap:
// "the the the" yields one match covering the first pair.
func findRepeatedWords(text string) []repeatedWord {
	indexes := wordPattern.FindAllStringIndex(text, -1)
	var matches []repeatedWord
	for i := 0; i+1 < len(indexes); i++ {
		first := text[indexes[i][0]:indexes[i][1]]
		second := text[indexes[i+1][0]:indexes[i+1][1]]
		if !strings.EqualFold(first, second) {
			continue
		}
		// Only whitespace may separate the pair; punctuation between the
		// words ("end. End") is not a repetition.
		gap := text[indexes[i][1]:indexes[i+1][0]]
		if strings.TrimSpace(gap) != "" {
			continue
		}
		matches = append(matches, repeatedWord{
			Flagged:    text[indexes[i][0]:indexes[i+1][1]],
			Suggestion: first,
		})
		i++ // consume the pair
	}
	return matches
}
