package sample_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/arcinstitute/binseq/transform/sample"
	"github.com/stretchr/testify/require"
)

func buildBQ(t *testing.T, n int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	h := bq.Header{BitSize: seqcodec.Bits2, S: 4}
	w := bq.NewWriter(&buf, h, seqcodec.FailPolicy(), nil)
	for i := 0; i < n; i++ {
		_, err := w.Append(&container.Record{Primary: []byte("ACGT")})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf
}

func countRecords(t *testing.T, buf *bytes.Buffer) int {
	t.Helper()
	r, err := bq.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	n := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		n++
	}
	return n
}

func TestSampleIsDeterministicForSameSeed(t *testing.T) {
	src1, err := bq.NewReader(bytes.NewReader(buildBQ(t, 1000).Bytes()))
	require.NoError(t, err)
	src2, err := bq.NewReader(bytes.NewReader(buildBQ(t, 1000).Bytes()))
	require.NoError(t, err)

	h := bq.Header{BitSize: seqcodec.Bits2, S: 4}
	var out1, out2 bytes.Buffer
	w1 := bq.NewWriter(&out1, h, seqcodec.FailPolicy(), nil)
	w2 := bq.NewWriter(&out2, h, seqcodec.FailPolicy(), nil)

	stats1, err := sample.Run(src1, w1, sample.New(0.3, 42))
	require.NoError(t, err)
	require.NoError(t, w1.Close())
	stats2, err := sample.Run(src2, w2, sample.New(0.3, 42))
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	require.Equal(t, stats1, stats2)
	require.Equal(t, out1.Bytes(), out2.Bytes())
	require.InDelta(t, 300, stats1.Kept, 60)
}

func TestSampleRateZeroKeepsNothing(t *testing.T) {
	src, err := bq.NewReader(bytes.NewReader(buildBQ(t, 100).Bytes()))
	require.NoError(t, err)
	h := bq.Header{BitSize: seqcodec.Bits2, S: 4}
	var out bytes.Buffer
	w := bq.NewWriter(&out, h, seqcodec.FailPolicy(), nil)

	stats, err := sample.Run(src, w, sample.New(0, 1))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.EqualValues(t, 100, stats.Seen)
	require.EqualValues(t, 0, stats.Kept)
}

func TestSampleRateOneKeepsEverything(t *testing.T) {
	src, err := bq.NewReader(bytes.NewReader(buildBQ(t, 100).Bytes()))
	require.NoError(t, err)
	h := bq.Header{BitSize: seqcodec.Bits2, S: 4}
	var out bytes.Buffer
	w := bq.NewWriter(&out, h, seqcodec.FailPolicy(), nil)

	stats, err := sample.Run(src, w, sample.New(1, 1))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.EqualValues(t, 100, stats.Kept)
	require.Equal(t, 100, countRecords(t, &out))
}
