package grep

import "regexp"

// RegexMatcher matches one or more byte-regex patterns, reporting
// disjoint matches in source order. It is the only matcher backed by
// the standard library: regexp's RE2 engine has no ecosystem
// replacement in the pack, and reimplementing regular-expression
// matching would be reinventing, not learning, idiomatic Go.
type RegexMatcher struct {
	patterns []*regexp.Regexp
}

// NewRegexMatcher compiles each pattern. AND across multiple patterns
// is supported: callers combine the per-pattern results via Filter.
func NewRegexMatcher(patterns []string) (*RegexMatcher, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled[i] = re
	}
	return &RegexMatcher{patterns: compiled}, nil
}

func (m *RegexMatcher) match(seq []byte) []Interval {
	var out []Interval
	for _, re := range m.patterns {
		for _, loc := range re.FindAllIndex(seq, -1) {
			out = append(out, Interval{loc[0], loc[1]})
		}
	}
	return out
}

func (m *RegexMatcher) MatchPrimary(seq []byte) []Interval   { return m.match(seq) }
func (m *RegexMatcher) MatchSecondary(seq []byte) []Interval { return m.match(seq) }

func (m *RegexMatcher) MatchEither(primary, secondary []byte) bool {
	if len(m.match(primary)) > 0 {
		return true
	}
	return secondary != nil && len(m.match(secondary)) > 0
}
