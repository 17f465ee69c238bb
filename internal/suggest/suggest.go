// Package suggest finds the closest known name for a mistyped one.
package suggest

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
)

// MaxDistance is the largest edit distance still offered as a suggestion.
const MaxDistance = 3

// lowered implements fuzzy.Source over lower-cased candidates.
type lowered []string

func (l lowered) String(i int) string { return l[i] }
func (l lowered) Len() int            { return len(l) }

// Ranked returns the candidates that fuzzy-match input, best first.
// Matching is case-insensitive; the original spellings are returned.
func Ranked(input string, candidates []string) []string {
	if input == "" || len(candidates) == 0 {
		return nil
	}

	lower := make(lowered, len(candidates))
	for i, c := range candidates {
		lower[i] = strings.ToLower(c)
	}

	matches := fuzzy.FindFrom(strings.ToLower(input), lower)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, candidates[m.Index])
	}
	return out
}

// Closest returns the candidate with the smallest edit distance to input,
// provided that distance is at most MaxDistance. Ties go to the earlier
// candidate.
func Closest(input string, candidates []string) (string, bool) {
	best, bestScore := "", MaxDistance+1
	in := strings.ToLower(input)
	for _, c := range candidates {
		if d := Distance(in, strings.ToLower(c)); d < bestScore {
			best, bestScore = c, d
		}
	}
	return best, bestScore <= MaxDistance
}

// DidYouMean combines both strategies: a close edit-distance match wins,
// otherwise the best fuzzy match is used.
func DidYouMean(input string, candidates []string) (string, bool) {
	if input == "" {
		return "", false
	}
	if s, ok := Closest(input, candidates); ok {
		return s, true
	}
	if ranked := Ranked(input, candidates); len(ranked) > 0 {
		return ranked[0], true
	}
	return "", false
}

// Distance is the Levenshtein distance between a and b, counted in runes.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}
