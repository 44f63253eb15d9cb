// Package arabic matches a spoken Arabic target word against a noisy
// speech-to-text transcription.
//
// The package provides three entry points:
//
//   - Normalize canonicalizes text across common orthographic variants.
//   - Similarity scores two raw strings in [0, 1] via their normalized forms.
//   - Decide applies a length-adjusted threshold and returns a MatchResult.
//
// All functions are pure and safe for concurrent use by multiple goroutines.
//
// Known limitations:
//
//   - Dialectal spelling variation beyond the listed letter classes is not collapsed.
//   - No edit-distance or phonetic matching is attempted.
package arabic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// letterVariants maps variant letterforms onto one canonical letter.
var letterVariants = strings.NewReplacer(
	"ة", "ه", // ة -> ه
	"أ", "ا", // أ -> ا
	"إ", "ا", // إ -> ا
	"آ", "ا", // آ -> ا
	"ى", "ي", // ى -> ي
)

// tashkeel is the explicit diacritic set: tanwin, short vowels, shadda, sukun.
// All of them are also category Mn.
const tashkeel = "ًٌٍَُِّْ"

// invisibles are zero-width and bidirectional control marks.
const invisibles = "\u200B\u200C\u200D\u200E\u200F"

// punctuation is stripped last; ، is the Arabic comma.
const punctuation = ".,!?;:،"

var markStripper = runes.Remove(runes.Predicate(func(r rune) bool {
	return unicode.Is(unicode.Mn, r) || strings.ContainsRune(tashkeel, r)
}))

// Normalize returns the comparison form of text. The steps run in a fixed
// order: trim, map letter variants, strip marks, strip invisible controls,
// drop all whitespace, strip punctuation. Empty input yields empty output.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = letterVariants.Replace(text)

	if stripped, _, err := transform.String(markStripper, text); err == nil {
		text = stripped
	}

	return strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(invisibles, r):
			return -1
		case unicode.IsSpace(r):
			return -1
		case strings.ContainsRune(punctuation, r):
			return -1
		}
		return r
	}, text)
}
