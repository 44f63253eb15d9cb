package arabic

import "unicode/utf8"

// DefaultThreshold is the base acceptance threshold for Decide.
const DefaultThreshold = 0.70

// Minimum thresholds for short targets, keyed by normalized rune length.
const (
	shortWordThreshold  = 0.80 // length <= 3
	mediumWordThreshold = 0.75 // length 4..5
)

// MatchResult is the verdict for one attempt. Confidence is always set, even
// when IsCorrect is false.
type MatchResult struct {
	IsCorrect  bool    `json:"is_correct"`
	Confidence float64 `json:"confidence"`
}

// Decide reports whether transcription matches target.
//
// Empty raw inputs never match and have confidence 0. Identical normalized
// forms match with confidence 1, including two inputs that both normalize
// to nothing. Otherwise the confidence is Similarity(target, transcription)
// and it must reach EffectiveThreshold(target, baseThreshold); a single
// side that normalizes to nothing scores 0 there.
func Decide(target, transcription string, baseThreshold float64) MatchResult {
	if target == "" || transcription == "" {
		return MatchResult{}
	}

	normTarget := Normalize(target)
	normTrans := Normalize(transcription)
	if normTarget == normTrans {
		return MatchResult{IsCorrect: true, Confidence: 1}
	}

	confidence := Similarity(target, transcription)
	return MatchResult{
		IsCorrect:  confidence >= thresholdFor(utf8.RuneCountInString(normTarget), baseThreshold),
		Confidence: confidence,
	}
}

// EffectiveThreshold returns the threshold Decide applies for target.
// Short words have fewer distinguishing letters, so their floor is raised.
func EffectiveThreshold(target string, baseThreshold float64) float64 {
	return thresholdFor(utf8.RuneCountInString(Normalize(target)), baseThreshold)
}

func thresholdFor(length int, base float64) float64 {
	switch {
	case length <= 3:
		return max(base, shortWordThreshold)
	case length <= 5:
		return max(base, mediumWordThreshold)
	default:
		return base
	}
}
