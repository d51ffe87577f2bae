package grep

import "io"

// PatternCount is one pattern's tally across a run: a record counts
// once even if the pattern occurred multiple times within it.
type PatternCount struct {
	Pattern string
	Matched uint64
}

// CountResult summarizes a per-pattern counting run.
type CountResult struct {
	Total  uint64
	Counts []PatternCount
}

// Fraction returns Matched/Total for a pattern, or 0 if Total is 0.
func (c CountResult) Fraction(i int) float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Counts[i].Matched) / float64(c.Total)
}

// singlePatternMatcher checks one matcher against one specific
// pattern's hits; PatternCounter builds one Matcher per pattern so
// each can be tallied independently, even though all three Matcher
// implementations are themselves multi-pattern.
type singlePatternMatcher struct {
	label   string
	matcher Matcher
}

// CountPatterns streams every record from src once, and reports, for
// each (label, matcher) pair, how many distinct records it matched on
// the given side.
func CountPatterns(src Source, side Side, rng Range, patterns []singlePatternMatcher) (CountResult, error) {
	result := CountResult{Counts: make([]PatternCount, len(patterns))}
	for i, p := range patterns {
		result.Counts[i].Pattern = p.label
	}

	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, err
		}
		result.Total++

		primary, primOff := rng.apply(rec.Primary)
		_ = primOff
		var secondary []byte
		if rec.Paired() {
			secondary, _ = rng.apply(rec.Extended)
		}

		for i, p := range patterns {
			hit := false
			if side == SidePrimary || side == SideEither {
				if len(p.matcher.MatchPrimary(primary)) > 0 {
					hit = true
				}
			}
			if !hit && (side == SideSecondary || side == SideEither) && secondary != nil {
				if len(p.matcher.MatchSecondary(secondary)) > 0 {
					hit = true
				}
			}
			if hit {
				result.Counts[i].Matched++
			}
		}
	}
	return result, nil
}

// NewPerPatternMatchers builds one single-pattern matcher per entry in
// patterns, using newMatcher to construct each (e.g. a closure over
// NewRegexMatcher called with a one-element slice).
func NewPerPatternMatchers(patterns []string, newMatcher func(pattern string) (Matcher, error)) ([]singlePatternMatcher, error) {
	out := make([]singlePatternMatcher, len(patterns))
	for i, p := range patterns {
		m, err := newMatcher(p)
		if err != nil {
			return nil, err
		}
		out[i] = singlePatternMatcher{label: p, matcher: m}
	}
	return out, nil
}
