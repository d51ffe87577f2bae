package fastx_test

import (
	"io"
	"testing"

	"github.com/arcinstitute/binseq/fastx"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	recs []*fastx.Record
	i    int
}

func (f *fakeReader) Next() (*fastx.Record, error) {
	if f.i >= len(f.recs) {
		return nil, io.EOF
	}
	r := f.recs[f.i]
	f.i++
	return r, nil
}
func (f *fakeReader) Close() error { return nil }

func TestStripMateSuffix(t *testing.T) {
	require.Equal(t, "read1", fastx.StripMateSuffix("read1/1"))
	require.Equal(t, "read1", fastx.StripMateSuffix("read1/2"))
	require.Equal(t, "read1", fastx.StripMateSuffix("read1 1"))
	require.Equal(t, "read1", fastx.StripMateSuffix("read1 2"))
	require.Equal(t, "read1", fastx.StripMateSuffix("read1"))
}

func TestPairReaderZipsMatchedMates(t *testing.T) {
	r1 := &fakeReader{recs: []*fastx.Record{{ID: "a/1", Seq: []byte("ACGT")}}}
	r2 := &fakeReader{recs: []*fastx.Record{{ID: "a/2", Seq: []byte("TTTT")}}}
	pr := fastx.NewPairReader(r1, r2)
	a, b, err := pr.Next()
	require.NoError(t, err)
	require.Equal(t, "ACGT", string(a.Seq))
	require.Equal(t, "TTTT", string(b.Seq))
}

func TestPairReaderRejectsMismatchedMates(t *testing.T) {
	r1 := &fakeReader{recs: []*fastx.Record{{ID: "a/1"}}}
	r2 := &fakeReader{recs: []*fastx.Record{{ID: "b/2"}}}
	pr := fastx.NewPairReader(r1, r2)
	_, _, err := pr.Next()
	require.Error(t, err)
}
