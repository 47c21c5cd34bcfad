// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity decides whether two strings describe the same work by
// comparing the length of their longest common subsequence to the longer
// input. Comparison is rune for rune: no case, accent, or whitespace
// folding is applied.
package similarity

// Threshold is the fraction of the longer string that the longest common
// subsequence must cover for two strings to be considered similar.
const Threshold = 0.9

// IsSimilar reports whether LCSLength(a, b) >= Threshold * max(len(a), len(b)),
// with lengths counted in runes. Two empty strings are similar; an empty
// string is never similar to a non-empty one.
func IsSimilar(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	return float64(lcsRunes(ra, rb)) >= Threshold*float64(longest)
}

// LCSLength returns the length, in runes, of the longest common subsequence
// of a and b.
func LCSLength(a, b string) int {
	return lcsRunes([]rune(a), []rune(b))
}

// lcsRunes runs the classic DP recurrence keeping two rows sized to the
// shorter input.
func lcsRunes(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
