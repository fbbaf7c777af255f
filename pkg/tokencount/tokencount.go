// Package tokencount approximates token counts for truncation decisions.
//
// The exact tokenizer used by the hosted models is not public, so the package
// exposes a small Estimator interface with two approximations behind it: a
// character-ratio estimator implementing the usual "about four characters per
// token" rule, and a rune-class heuristic that weighs words, numbers, CJK
// text and symbols separately. Callers pick one at startup; the truncation
// policy never cares which.
package tokencount

import (
	"math"
	"strings"
	"unicode"
)

// CharsPerToken is the character-to-token ratio used by CharEstimator and by
// truncation code that converts a token budget back into a character count.
const CharsPerToken = 4

// Estimator approximates how many tokens a piece of text costs upstream.
type Estimator interface {
	Estimate(text string) int
}

// CharEstimator estimates tokens as len(text)/CharsPerToken. This matches
// the rough sizing the upstream free tier is known to tolerate and is the
// default estimator.
type CharEstimator struct{}

// Estimate returns the character-based token approximation for text.
func (CharEstimator) Estimate(text string) int {
	return len(text) / CharsPerToken
}

// HeuristicEstimator estimates tokens by rune class: each run of letters or
// digits costs about one token, CJK characters cost one token apiece, and
// punctuation costs a fraction. It tracks real tokenizers more closely than
// the character ratio on prose-heavy input.
type HeuristicEstimator struct{}

// Estimate returns the rune-class token approximation for text.
func (HeuristicEstimator) Estimate(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	var count float64
	inWord := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			inWord = false
			count += 0.25
		case isCJK(r):
			inWord = false
			count += 1.0
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if !inWord {
				count += 1.1
				inWord = true
			}
		default:
			inWord = false
			count += 0.4
		}
	}
	return int(math.Ceil(count))
}

// ForName returns the estimator registered under name. Unknown or empty
// names select the character estimator, so configuration can never produce a
// nil estimator.
func ForName(name string) Estimator {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "heuristic":
		return HeuristicEstimator{}
	default:
		return CharEstimator{}
	}
}

// isCJK reports whether r belongs to the Han, Hiragana/Katakana, or Hangul
// ranges, all of which tokenize close to one token per character.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		(r >= 0x3040 && r <= 0x30FF) ||
		(r >= 0xAC00 && r <= 0xD7A3)
}
