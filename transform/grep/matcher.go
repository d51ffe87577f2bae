// Package grep implements the pattern-matching engine used to filter
// and colorize container records: pluggable matchers (regex,
// Aho-Corasick, bounded-fuzzy), a filter processor combining them with
// AND/OR/invert/range logic, and a colorized-interval output mode.
package grep

import "sort"

// Interval is a matched byte range [Start, End) within one sequence.
type Interval struct {
	Start, End int
}

// Matcher is the contract every pattern engine (regex, Aho-Corasick,
// fuzzy) implements. Each method returns disjoint-or-overlapping
// matched intervals against the named side; MatchEither is a
// convenience that reports whether either side matched.
type Matcher interface {
	MatchPrimary(seq []byte) []Interval
	MatchSecondary(seq []byte) []Interval
	MatchEither(primary, secondary []byte) bool
}

// mergeIntervals sorts and collapses touching or overlapping
// intervals; Filter uses it to merge each side's hits before they are
// reported in a Result.
func mergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Interval, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// offsetIntervals shifts every interval by delta, used to carry a
// range restriction's start offset back into sequence-relative
// coordinates.
func offsetIntervals(in []Interval, delta int) []Interval {
	out := make([]Interval, len(in))
	for i, iv := range in {
		out[i] = Interval{iv.Start + delta, iv.End + delta}
	}
	return out
}
