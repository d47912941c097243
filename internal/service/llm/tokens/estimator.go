// Package tokens approximates token counts without a real tokenizer.
// Estimates are within roughly 30% of what providers report; use them for
// budgeting and fallback accounting, never for exact billing.
package tokens

import (
	"math"
	"unicode/utf8"
)

// ContentClass selects a characters-per-token ratio.
type ContentClass int

const (
	ClassText ContentClass = iota
	ClassCode
)

const (
	// CharsPerTokenText is the ratio for natural-language text.
	CharsPerTokenText = 4.0
	// CharsPerTokenCode is the ratio for source code, which tokenizes denser.
	CharsPerTokenCode = 3.5
)

// Estimator is a stateless character-ratio token estimator. The zero value
// uses the default ratios.
type Estimator struct {
	TextRatio float64
	CodeRatio float64
}

// NewEstimator returns an estimator with the default ratios.
func NewEstimator() Estimator {
	return Estimator{TextRatio: CharsPerTokenText, CodeRatio: CharsPerTokenCode}
}

// Estimate returns the token estimate for natural-language text.
func (e Estimator) Estimate(text string) int {
	return e.EstimateClass(text, ClassText)
}

// EstimateClass returns ceil(characters / ratio) for the content class.
// Characters are counted as runes so multi-byte text is not overcounted.
func (e Estimator) EstimateClass(text string, class ContentClass) int {
	if text == "" {
		return 0
	}
	ratio := e.ratio(class)
	return int(math.Ceil(float64(utf8.RuneCountInString(text)) / ratio))
}

func (e Estimator) ratio(class ContentClass) float64 {
	switch class {
	case ClassCode:
		if e.CodeRatio > 0 {
			return e.CodeRatio
		}
		return CharsPerTokenCode
	default:
		if e.TextRatio > 0 {
			return e.TextRatio
		}
		return CharsPerTokenText
	}
}
