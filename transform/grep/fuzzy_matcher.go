package grep

import (
	"math"

	"github.com/hbollon/go-edlib"
)

// FuzzyMatcher reports windows of a sequence within bounded edit
// distance K of one of its patterns. Only OR semantics are supported
// across patterns.
type FuzzyMatcher struct {
	patterns []string
	k        int
	// strictInexact restricts to cost >= 1: exact substring hits
	// (distance 0) are excluded, surfacing only true mismatches.
	strictInexact bool
}

// NewFuzzyMatcher constructs a matcher over patterns with maximum
// edit distance k.
func NewFuzzyMatcher(patterns []string, k int, strictInexact bool) *FuzzyMatcher {
	return &FuzzyMatcher{patterns: patterns, k: k, strictInexact: strictInexact}
}

// scan tries every window whose length is within k of each pattern's
// length; this is brute force (O(len(seq) * k * len(pattern)) per
// pattern) but sequences and k are both small enough in practice that
// a real bounded-automaton search would not earn its complexity here.
func (m *FuzzyMatcher) scan(seq []byte) []Interval {
	s := string(seq)
	var out []Interval
	for _, pat := range m.patterns {
		plen := len(pat)
		for winLen := plen - m.k; winLen <= plen+m.k; winLen++ {
			if winLen <= 0 || winLen > len(s) {
				continue
			}
			for start := 0; start+winLen <= len(s); start++ {
				window := s[start : start+winLen]
				dist, err := edlib.StringsSimilarity(window, pat, edlib.Levenshtein)
				if err != nil {
					continue
				}
				cost := int(math.Round(float64((1 - dist) * float32(max(winLen, plen)))))
				if cost > m.k {
					continue
				}
				if m.strictInexact && cost == 0 {
					continue
				}
				out = append(out, Interval{start, start + winLen})
			}
		}
	}
	return out
}

func (m *FuzzyMatcher) MatchPrimary(seq []byte) []Interval   { return m.scan(seq) }
func (m *FuzzyMatcher) MatchSecondary(seq []byte) []Interval { return m.scan(seq) }

func (m *FuzzyMatcher) MatchEither(primary, secondary []byte) bool {
	if len(m.scan(primary)) > 0 {
		return true
	}
	return secondary != nil && len(m.scan(secondary)) > 0
}
