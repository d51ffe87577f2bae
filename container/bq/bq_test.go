package bq_test

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	h := bq.Header{Paired: true, BitSize: seqcodec.Bits2, S: 4, X: 4}
	var buf bytes.Buffer
	w := bq.NewWriter(&buf, h, seqcodec.FailPolicy(), nil)

	recs := []*container.Record{
		{Primary: []byte("ACGT"), Extended: []byte("TGCA"), Flags: 1},
		{Primary: []byte("GGGG"), Extended: []byte("CCCC"), Flags: 0},
	}
	for _, r := range recs {
		skipped, err := w.Append(r)
		require.NoError(t, err)
		require.False(t, skipped)
	}
	require.NoError(t, w.Close())

	r, err := bq.NewReader(&buf)
	require.NoError(t, err)
	require.Equal(t, h.S, r.Header.S)

	got, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "ACGT", string(got.Primary))
	require.Equal(t, "TGCA", string(got.Extended))
	require.Equal(t, uint32(1), got.Flags)

	got, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, "GGGG", string(got.Primary))

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestRandomAccessReturnsWrittenRecords(t *testing.T) {
	h := bq.Header{Paired: false, BitSize: seqcodec.Bits4, S: 6}
	f, err := os.CreateTemp(t.TempDir(), "bq-*.bq")
	require.NoError(t, err)
	defer f.Close()

	w := bq.NewWriter(f, h, seqcodec.FailPolicy(), nil)
	want := []string{"ACGTNN", "NNNNNN", "TTTTTT"}
	for _, s := range want {
		_, err := w.Append(&container.Record{Primary: []byte(s)})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	rr, err := bq.OpenRandom(f.Name())
	require.NoError(t, err)
	defer rr.Close()
	require.EqualValues(t, len(want), rr.Len())

	for i := len(want) - 1; i >= 0; i-- {
		rec, err := rr.At(uint64(i))
		require.NoError(t, err)
		require.Equal(t, want[i], string(rec.Primary))
	}
}

func TestLengthMismatchRejected(t *testing.T) {
	h := bq.Header{BitSize: seqcodec.Bits2, S: 4}
	var buf bytes.Buffer
	w := bq.NewWriter(&buf, h, seqcodec.FailPolicy(), nil)
	_, err := w.Append(&container.Record{Primary: []byte("ACG")})
	require.Error(t, err)
}
