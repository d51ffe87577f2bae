package grep

import (
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
)

// Side selects which half of a record a filter matches against.
type Side int

const (
	SidePrimary Side = iota
	SideSecondary
	SideEither
)

// Combine selects how a Filter's matchers combine: OR passes a record
// that any matcher hit, AND only one that every matcher hit.
type Combine int

const (
	CombineOR Combine = iota
	CombineAND
)

// Range restricts matching to a byte window, carrying the start
// offset forward so reported match coordinates stay sequence-relative.
type Range struct {
	Start, End int // End == 0 means "to the end of the sequence"
}

func (r Range) apply(seq []byte) ([]byte, int) {
	if r.Start == 0 && r.End == 0 {
		return seq, 0
	}
	start := r.Start
	if start > len(seq) {
		start = len(seq)
	}
	end := r.End
	if end == 0 || end > len(seq) {
		end = len(seq)
	}
	if end < start {
		end = start
	}
	return seq[start:end], start
}

// Filter wraps a Matcher with range restriction, AND/OR combination
// across patterns, inversion, and a count-only mode.
type Filter struct {
	matchers []Matcher
	side     Side
	combine  Combine
	invert   bool
	rng      Range
}

// NewFilter validates combine against the matchers' supported
// semantics (Aho-Corasick and fuzzy matchers are OR-only) and
// constructs a Filter.
func NewFilter(matchers []Matcher, side Side, combine Combine, invert bool, rng Range) (*Filter, error) {
	if combine == CombineAND {
		for _, m := range matchers {
			switch m.(type) {
			case *ACMatcher, *FuzzyMatcher:
				return nil, errs.E(errs.ConfigError, "grep: AND combination is not supported with Aho-Corasick or fuzzy matchers")
			}
		}
	}
	return &Filter{matchers: matchers, side: side, combine: combine, invert: invert, rng: rng}, nil
}

// matchIntervals returns the merged matched intervals for rec under
// this filter's side selection, and whether the record passes.
func (f *Filter) matchIntervals(rec *container.Record) ([]Interval, []Interval, bool) {
	primary, primOff := f.rng.apply(rec.Primary)
	var secondary []byte
	var secOff int
	if rec.Paired() {
		secondary, secOff = f.rng.apply(rec.Extended)
	}

	var primaryHits, secondaryHits []Interval
	matchedCount := 0
	for _, m := range f.matchers {
		ok := false
		if f.side == SidePrimary || f.side == SideEither {
			ivs := m.MatchPrimary(primary)
			if len(ivs) > 0 {
				ok = true
				primaryHits = append(primaryHits, offsetIntervals(ivs, primOff)...)
			}
		}
		if (f.side == SideSecondary || f.side == SideEither) && secondary != nil {
			ivs := m.MatchSecondary(secondary)
			if len(ivs) > 0 {
				ok = true
				secondaryHits = append(secondaryHits, offsetIntervals(ivs, secOff)...)
			}
		}
		if ok {
			matchedCount++
		}
	}

	passes := matchedCount > 0
	if f.combine == CombineAND {
		passes = matchedCount == len(f.matchers)
	}
	if f.invert {
		passes = !passes
	}
	return mergeIntervals(primaryHits), mergeIntervals(secondaryHits), passes
}

// Source is the common streaming-read surface bq.Reader, vbq.Reader,
// and cbq.Reader all satisfy.
type Source interface {
	Next() (*container.Record, error)
}

// Result is one passing record plus its merged match intervals, ready
// for plain or colorized rendering.
type Result struct {
	Record           *container.Record
	PrimaryMatches   []Interval
	SecondaryMatches []Interval
}

// Run streams every record from src through f, invoking emit for each
// one that passes. It returns the number of records seen and the
// number that passed.
func Run(src Source, f *Filter, emit func(Result) error) (seen, passed uint64, err error) {
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return seen, passed, err
		}
		seen++
		primHits, secHits, ok := f.matchIntervals(rec)
		if !ok {
			continue
		}
		passed++
		if emit != nil {
			if err := emit(Result{Record: rec, PrimaryMatches: primHits, SecondaryMatches: secHits}); err != nil {
				return seen, passed, err
			}
		}
	}
	return seen, passed, nil
}
