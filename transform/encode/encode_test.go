package encode_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/fastx"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/arcinstitute/binseq/transform/encode"
	"github.com/stretchr/testify/require"
)

type fakeSrc struct {
	recs []*fastx.Record
	i    int
}

func (f *fakeSrc) Next() (*fastx.Record, error) {
	if f.i >= len(f.recs) {
		return nil, io.EOF
	}
	r := f.recs[f.i]
	f.i++
	return r, nil
}
func (f *fakeSrc) Close() error { return nil }

func TestRunBQEncodesAllRecords(t *testing.T) {
	src := &fakeSrc{}
	for i := 0; i < 50; i++ {
		src.recs = append(src.recs, &fastx.Record{ID: "r", Seq: []byte("ACGTACGT")})
	}

	var buf bytes.Buffer
	h := bq.Header{BitSize: seqcodec.Bits2, S: 8}
	w := bq.NewWriter(&buf, h, seqcodec.FailPolicy(), nil)

	stats, err := encode.RunBQ(src, w, h, seqcodec.FailPolicy(), 0, 4)
	require.NoError(t, err)
	require.EqualValues(t, 50, stats.Written)
	require.EqualValues(t, 0, stats.Skipped)

	r, err := bq.NewReader(&buf)
	require.NoError(t, err)
	count := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 50, count)
}
