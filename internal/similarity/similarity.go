// Package similarity computes normalized edit-distance similarity between
// content strings. Used by grouping to suppress near-duplicate artifacts
// detected within one message.
package similarity

import (
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// DefaultMaxCompareLength bounds the edit-distance computation. Inputs
// longer than this are truncated before comparison so scoring stays cheap
// for pathological content.
const DefaultMaxCompareLength = 64 * 1024

// Scorer computes similarity scores in [0, 1].
//
// The zero value is not usable; construct with New.
type Scorer struct {
	maxLen int
	params *levenshtein.Params
}

// New creates a Scorer. maxCompareLength <= 0 selects
// DefaultMaxCompareLength.
func New(maxCompareLength int) *Scorer {
	if maxCompareLength <= 0 {
		maxCompareLength = DefaultMaxCompareLength
	}
	return &Scorer{
		maxLen: maxCompareLength,
		params: levenshtein.NewParams(),
	}
}

// Score returns the normalized similarity of a and b:
//
//	1.0                         iff a == b
//	0.0                         if exactly one of a, b is empty
//	1 - lev(a,b)/max(len(a,b))  otherwise
//
// Score is symmetric. Inputs longer than the configured maximum are
// truncated before the edit-distance computation; unequal inputs whose
// truncated views coincide score strictly below 1.0.
func (s *Scorer) Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	if len(a) > s.maxLen {
		a = a[:s.maxLen]
	}
	if len(b) > s.maxLen {
		b = b[:s.maxLen]
	}
	if a == b {
		// Equal after truncation while the full strings differ. Score
		// just under 1.0 so exact equality stays the only way to reach
		// it.
		return 1.0 - 1.0/float64(utf8.RuneCountInString(a))
	}

	// Distance counts runes, so normalize by rune length to stay in [0, 1].
	dist := levenshtein.Distance(a, b, s.params)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	return 1.0 - float64(dist)/float64(maxLen)
}
