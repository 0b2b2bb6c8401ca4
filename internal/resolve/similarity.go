package resolve

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two strings from 0 (unrelated) to 100 (identical).
type Similarity interface {
	Score(a, b string) float64
}

// SimilarityFunc adapts a plain function to Similarity.
type SimilarityFunc func(a, b string) float64

// Score calls f(a, b).
func (f SimilarityFunc) Score(a, b string) float64 { return f(a, b) }

// LevenshteinRatio is 100 * (1 - distance / longer length), computed on
// lower-cased input. Two empty strings are identical.
var LevenshteinRatio = SimilarityFunc(func(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
})
