package arabic

import (
	"slices"
	"strings"
)

// ContainmentScore is returned when one normalized form contains the other,
// e.g. a target word wrapped in filler words by the transcriber.
const ContainmentScore = 0.95

// Weights of the combined score; order-sensitive agreement dominates.
const (
	positionalWeight = 0.6
	multisetWeight   = 0.3
	jaccardWeight    = 0.1
)

// Similarity scores target against transcription in [0, 1].
//
// Returns 0 when either input is empty before or after normalization, 1 when
// the normalized forms are identical, and ContainmentScore when one normalized
// form is a substring of the other. Otherwise the score is
// 0.6*positional + 0.3*multiset + 0.1*jaccard over the normalized runes.
//
// The multiset measure consumes characters of target against transcription,
// so the argument order matters for exact numeric parity.
func Similarity(target, transcription string) float64 {
	if target == "" || transcription == "" {
		return 0
	}

	a := Normalize(target)
	b := Normalize(transcription)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if containsEither(a, b) {
		return ContainmentScore
	}

	ra, rb := []rune(a), []rune(b)
	return positional(ra, rb)*positionalWeight +
		multiset(ra, rb)*multisetWeight +
		jaccard(ra, rb)*jaccardWeight
}

// BestMatch returns the candidate most similar to target and its score.
// Ties keep the earliest candidate. ok is false when no candidate scores above 0.
func BestMatch(target string, candidates []string) (best string, score float64, ok bool) {
	for _, c := range candidates {
		if s := Similarity(target, c); s > score {
			best, score, ok = c, s, true
		}
	}
	return best, score, ok
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// positional is the fraction of aligned positions with equal runes, over the
// longer length.
func positional(a, b []rune) float64 {
	n := min(len(a), len(b))
	matches := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(max(len(a), len(b)))
}

// multiset greedily matches each rune of a against a shrinking copy of b so
// repeated letters are not double counted.
func multiset(a, b []rune) float64 {
	pool := slices.Clone(b)
	matches := 0
	for _, r := range a {
		if i := slices.Index(pool, r); i >= 0 {
			matches++
			pool = slices.Delete(pool, i, i+1)
		}
	}
	return float64(matches) / float64(max(len(a), len(b)))
}

// jaccard is |A ∩ B| / |A ∪ B| over the distinct runes of a and b.
func jaccard(a, b []rune) float64 {
	setA := make(map[rune]struct{}, len(a))
	for _, r := range a {
		setA[r] = struct{}{}
	}
	setB := make(map[rune]struct{}, len(b))
	for _, r := range b {
		setB[r] = struct{}{}
	}

	inter := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
