package cbq_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/arcinstitute/binseq/compressutil"
	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/cbq"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTripColumnar(t *testing.T) {
	h := cbq.Header{
		Paired: true, Quality: true, Headers: true, Compression: true,
		BitSize: seqcodec.Bits2, BlockSize: 2,
	}
	var buf bytes.Buffer
	w := cbq.NewWriter(&buf, h, seqcodec.FailPolicy(), nil, compressutil.LevelDefault)

	recs := []*container.Record{
		{Primary: []byte("ACGT"), Extended: []byte("TT"), PrimaryQual: []byte("IIII"), ExtendedQual: []byte("II"), PrimaryHeader: []byte("a"), ExtendedHeader: []byte("a/2"), Flags: 7},
		{Primary: []byte("GGGGCC"), Extended: []byte("AAA"), PrimaryQual: []byte("JJJJJJ"), ExtendedQual: []byte("JJJ"), PrimaryHeader: []byte("b"), ExtendedHeader: []byte("b/2"), Flags: 0},
		{Primary: []byte("TT"), Extended: []byte("C"), PrimaryQual: []byte("KK"), ExtendedQual: []byte("K"), PrimaryHeader: []byte("c"), ExtendedHeader: []byte("c/2"), Flags: 3},
	}
	for _, r := range recs {
		require.NoError(t, w.Append(r))
	}
	require.NoError(t, w.Close())

	r, err := cbq.NewReader(&buf)
	require.NoError(t, err)

	for i, want := range recs {
		got, err := r.Next()
		require.NoError(t, err, "record %d", i)
		require.Equal(t, string(want.Primary), string(got.Primary))
		require.Equal(t, string(want.Extended), string(got.Extended))
		require.Equal(t, string(want.PrimaryQual), string(got.PrimaryQual))
		require.Equal(t, string(want.PrimaryHeader), string(got.PrimaryHeader))
		require.Equal(t, want.Flags, got.Flags)
	}
	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}
