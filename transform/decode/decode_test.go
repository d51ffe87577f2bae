package decode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/arcinstitute/binseq/transform/decode"
	"github.com/stretchr/testify/require"
)

func TestWriteFastaFromBQ(t *testing.T) {
	var buf bytes.Buffer
	h := bq.Header{BitSize: seqcodec.Bits2, S: 4}
	w := bq.NewWriter(&buf, h, seqcodec.FailPolicy(), nil)
	for _, seq := range []string{"ACGT", "TTTT", "GGGG"} {
		_, err := w.Append(&container.Record{Primary: []byte(seq)})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r, err := bq.NewReader(&buf)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, decode.WriteFasta(&out, r, decode.WriteFastaOpts{}))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Equal(t, []string{">read0", "ACGT", ">read1", "TTTT", ">read2", "GGGG"}, lines)
}

func TestWriteFastqSynthesizesQualityWhenAbsent(t *testing.T) {
	var buf bytes.Buffer
	h := bq.Header{BitSize: seqcodec.Bits2, S: 4}
	w := bq.NewWriter(&buf, h, seqcodec.FailPolicy(), nil)
	_, err := w.Append(&container.Record{Primary: []byte("ACGT")})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := bq.NewReader(&buf)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, decode.WriteFastq(&out, r, decode.WriteFastaOpts{}))
	require.Equal(t, "@read0\nACGT\n+\nIIII\n", out.String())
}
