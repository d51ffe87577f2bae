package grep_test

import (
	"io"
	"testing"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/transform/grep"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	recs []*container.Record
	i    int
}

func (s *sliceSource) Next() (*container.Record, error) {
	if s.i >= len(s.recs) {
		return nil, io.EOF
	}
	r := s.recs[s.i]
	s.i++
	return r, nil
}

func recs(seqs ...string) []*container.Record {
	out := make([]*container.Record, len(seqs))
	for i, s := range seqs {
		out[i] = &container.Record{Primary: []byte(s)}
	}
	return out
}

func TestRegexFilterPassesMatchingRecords(t *testing.T) {
	rm, err := grep.NewRegexMatcher([]string{"GATTACA"})
	require.NoError(t, err)
	f, err := grep.NewFilter([]grep.Matcher{rm}, grep.SidePrimary, grep.CombineOR, false, grep.Range{})
	require.NoError(t, err)

	src := &sliceSource{recs: recs("AAAGATTACAAAA", "CCCCCCCC", "TTGATTACA")}
	var passed []string
	seen, n, err := grep.Run(src, f, func(r grep.Result) error {
		passed = append(passed, string(r.Record.Primary))
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, seen)
	require.EqualValues(t, 2, n)
	require.Equal(t, []string{"AAAGATTACAAAA", "TTGATTACA"}, passed)
}

func TestInvertFlipsPass(t *testing.T) {
	rm, err := grep.NewRegexMatcher([]string{"GATTACA"})
	require.NoError(t, err)
	f, err := grep.NewFilter([]grep.Matcher{rm}, grep.SidePrimary, grep.CombineOR, true, grep.Range{})
	require.NoError(t, err)

	src := &sliceSource{recs: recs("GATTACA", "NOPE")}
	_, n, err := grep.Run(src, f, nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestACMatcherRejectsAND(t *testing.T) {
	ac := grep.NewACMatcher([]string{"AAA", "CCC"})
	_, err := grep.NewFilter([]grep.Matcher{ac}, grep.SidePrimary, grep.CombineAND, false, grep.Range{})
	require.Error(t, err)
}

func TestColorizeWrapsMatchedSpan(t *testing.T) {
	out := grep.Colorize([]byte("ACGTACGT"), []grep.Interval{{2, 4}})
	require.Contains(t, string(out), "\x1b[1;31m")
	require.Contains(t, string(out), "\x1b[0m")
}
