package grep

import (
	"bytes"

	"github.com/cloudflare/ahocorasick"
)

// ACMatcher compiles many literal patterns into a single
// Aho-Corasick automaton for the fast any-pattern-present test, and
// keeps the raw pattern bytes to recover match positions: the
// upstream Matcher.Match reports which patterns fired, not where, so
// position recovery for color/interval output re-scans only once the
// automaton has already confirmed a hit exists.
type ACMatcher struct {
	automaton *ahocorasick.Matcher
	patterns  [][]byte
}

// NewACMatcher builds the automaton over patterns. Only OR semantics
// are supported across patterns; AND is rejected by Filter before
// constructing one of these.
func NewACMatcher(patterns []string) *ACMatcher {
	raw := make([][]byte, len(patterns))
	for i, p := range patterns {
		raw[i] = []byte(p)
	}
	return &ACMatcher{automaton: ahocorasick.NewMatcher(raw), patterns: raw}
}

func (m *ACMatcher) hit(seq []byte) bool {
	return len(m.automaton.Match(seq)) > 0
}

func (m *ACMatcher) positions(seq []byte) []Interval {
	var out []Interval
	for _, p := range m.patterns {
		if len(p) == 0 {
			continue
		}
		start := 0
		for {
			idx := bytes.Index(seq[start:], p)
			if idx < 0 {
				break
			}
			abs := start + idx
			out = append(out, Interval{abs, abs + len(p)})
			start = abs + 1
		}
	}
	return out
}

func (m *ACMatcher) MatchPrimary(seq []byte) []Interval {
	if !m.hit(seq) {
		return nil
	}
	return m.positions(seq)
}

func (m *ACMatcher) MatchSecondary(seq []byte) []Interval {
	if !m.hit(seq) {
		return nil
	}
	return m.positions(seq)
}

func (m *ACMatcher) MatchEither(primary, secondary []byte) bool {
	if m.hit(primary) {
		return true
	}
	return secondary != nil && m.hit(secondary)
}
