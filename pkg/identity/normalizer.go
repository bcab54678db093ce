package identity

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// SplitDisplayName splits a display name into the first token (name) and
// the remaining tokens joined with a space (last_name), matching
// create_user's "name = first token, last_name = remaining tokens"
// rule (spec.md §4.3).
func SplitDisplayName(displayName string) (name, lastName string) {
	tokens := strings.Fields(displayName)
	if len(tokens) == 0 {
		return "", ""
	}
	return tokens[0], strings.Join(tokens[1:], " ")
}

// SimilarityRatio scores how alike a and b are on a 0..1 scale, 1 meaning
// identical. It normalizes Levenshtein edit distance by the longer string's
// length, matching the threshold-comparable ratio spec.md §4.3 requires for
// name-only resolution ("accept only if max(score) ≥ 0.75").
func SimilarityRatio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
