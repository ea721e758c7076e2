// Package quality scores candidate translations against cheap heuristics.
// A score below the acceptance threshold means the caller keeps the original
// text instead of the candidate.
package quality

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultThreshold is the minimum score an accepted translation needs.
const DefaultThreshold = 0.7

const (
	minLength = 4
	maxLength = 200
	// maxRepeat is the longest tolerated run of identical characters.
	maxRepeat = 3
)

var (
	latinOnly   = regexp.MustCompile(`^[A-Za-z\s]+$`)
	arabicOnly  = regexp.MustCompile("^[؀-ۿ\\s]+$")
	digitsOnly  = regexp.MustCompile(`^[0-9\s]+$`)
	symbolsOnly = regexp.MustCompile(`^[\p{P}\p{S}\s]+$`)
)

// Evaluator gates translations by a weighted heuristic score.
type Evaluator struct {
	threshold float64
}

// NewEvaluator builds an evaluator; a non-positive threshold falls back to
// the default.
func NewEvaluator(threshold float64) *Evaluator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Evaluator{threshold: threshold}
}

// Accept reports whether the candidate scores at or above the threshold.
func (e *Evaluator) Accept(original, translated, targetLang string) bool {
	return e.Score(original, translated, targetLang) >= e.threshold
}

// Score sums four independent signals and caps the result at 1.0:
// plausible length ratio (+0.3), non-degenerate text (+0.3), target-script
// character present for Arabic targets (+0.2), and at least two meaningful
// tokens (+0.2).
func (e *Evaluator) Score(original, translated, targetLang string) float64 {
	score := 0.0

	if ratio := lengthRatio(original, translated); ratio > 0.3 && ratio < 3 {
		score += 0.3
	}

	if !degenerate(translated) {
		score += 0.3
	}

	if targetLang == "ar" && containsArabic(translated) {
		score += 0.2
	}

	if meaningfulTokens(translated) >= 2 {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func lengthRatio(original, translated string) float64 {
	a := utf8.RuneCountInString(original)
	b := utf8.RuneCountInString(translated)
	if a == 0 || b == 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

// degenerate flags outputs a broken provider typically emits: untouched
// source text, script-only or digit-only noise, character runs, or lengths
// outside the useful window.
func degenerate(text string) bool {
	length := utf8.RuneCountInString(text)
	if length < minLength || length > maxLength {
		return true
	}

	if latinOnly.MatchString(text) || arabicOnly.MatchString(text) ||
		digitsOnly.MatchString(text) || symbolsOnly.MatchString(text) {
		return true
	}

	return longestRun(text) > maxRepeat
}

// longestRun returns the length of the longest run of one repeated rune.
// RE2 has no backreferences, so the scan is manual.
func longestRun(text string) int {
	var (
		prev    rune
		run     int
		longest int
	)
	for _, r := range text {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

func containsArabic(text string) bool {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

func meaningfulTokens(text string) int {
	count := 0
	for _, token := range strings.Fields(text) {
		if utf8.RuneCountInString(token) > 1 {
			count++
		}
	}
	return count
}
