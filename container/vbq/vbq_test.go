package vbq_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/arcinstitute/binseq/compressutil"
	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTripAcrossBlocks(t *testing.T) {
	h := vbq.Header{
		Paired: true, Quality: true, Headers: true, Compression: true,
		BitSize: seqcodec.Bits2, BlockSize: 16,
	}
	var buf bytes.Buffer
	w := vbq.NewWriter(&buf, h, seqcodec.FailPolicy(), nil, compressutil.LevelDefault)

	var blocksFlushed int
	w.OnBlock(func(fileOffset, startOrdinal uint64, bh vbq.BlockHeader) { blocksFlushed++ })

	recs := []*container.Record{
		{Primary: []byte("ACGTACGT"), Extended: []byte("TTTT"), PrimaryQual: []byte("IIIIIIII"), ExtendedQual: []byte("IIII"), PrimaryHeader: []byte("r1"), ExtendedHeader: []byte("r1/2"), Flags: 1},
		{Primary: []byte("GGGGCCCC"), Extended: []byte("AAAA"), PrimaryQual: []byte("JJJJJJJJ"), ExtendedQual: []byte("JJJJ"), PrimaryHeader: []byte("r2"), ExtendedHeader: []byte("r2/2"), Flags: 0},
	}
	for _, r := range recs {
		skipped, err := w.Append(r)
		require.NoError(t, err)
		require.False(t, skipped)
	}
	require.NoError(t, w.Close())
	require.Greater(t, blocksFlushed, 0)

	r, err := vbq.NewReader(&buf)
	require.NoError(t, err)

	got, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "ACGTACGT", string(got.Primary))
	require.Equal(t, "r1", string(got.PrimaryHeader))
	require.Equal(t, "IIII", string(got.ExtendedQual))

	got, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, "GGGGCCCC", string(got.Primary))

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStoredFallbackWhenCompressionDoesNotShrink(t *testing.T) {
	h := vbq.Header{BitSize: seqcodec.Bits2, Compression: true, BlockSize: 1024}
	var buf bytes.Buffer
	w := vbq.NewWriter(&buf, h, seqcodec.FailPolicy(), nil, compressutil.LevelDefault)
	_, err := w.Append(&container.Record{Primary: []byte("AC")})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := vbq.NewReader(&buf)
	require.NoError(t, err)
	got, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "AC", string(got.Primary))
}
