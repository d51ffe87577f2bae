package concat_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/arcinstitute/binseq/concat"
	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/stretchr/testify/require"
)

func buildBQBody(t *testing.T, h bq.Header, seqs []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bq.NewWriter(&buf, h, seqcodec.FailPolicy(), nil)
	for _, s := range seqs {
		_, err := w.Append(&container.Record{Primary: []byte(s)})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()[bq.HeaderSize:]
}

func TestBQConcatRejectsMismatchedHeaders(t *testing.T) {
	h1 := bq.Header{BitSize: seqcodec.Bits2, S: 4}
	h2 := bq.Header{BitSize: seqcodec.Bits2, S: 8}
	var dst bytes.Buffer
	err := concat.BQ(&dst, []bq.Header{h1, h2}, []io.Reader{bytes.NewReader(nil), bytes.NewReader(nil)})
	require.Error(t, err)
}

func TestBQConcatMergesBodies(t *testing.T) {
	h := bq.Header{BitSize: seqcodec.Bits2, S: 4}
	body1 := buildBQBody(t, h, []string{"ACGT", "TTTT"})
	body2 := buildBQBody(t, h, []string{"GGGG"})

	var dst bytes.Buffer
	err := concat.BQ(&dst, []bq.Header{h, h}, []io.Reader{bytes.NewReader(body1), bytes.NewReader(body2)})
	require.NoError(t, err)

	r, err := bq.NewReader(&dst)
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
	require.Equal(t, 3, count)
}

func TestRecodeMergesVBQSources(t *testing.T) {
	h := vbq.Header{BitSize: seqcodec.Bits2, BlockSize: vbq.DefaultBlockSize}
	var buf1, buf2 bytes.Buffer
	w1 := vbq.NewWriter(&buf1, h, seqcodec.FailPolicy(), nil, 0)
	_, err := w1.Append(&container.Record{Primary: []byte("ACGT")})
	require.NoError(t, err)
	require.NoError(t, w1.Close())

	w2 := vbq.NewWriter(&buf2, h, seqcodec.FailPolicy(), nil, 0)
	_, err = w2.Append(&container.Record{Primary: []byte("TTTT")})
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	r1, err := vbq.NewReader(bytes.NewReader(buf1.Bytes()))
	require.NoError(t, err)
	r2, err := vbq.NewReader(bytes.NewReader(buf2.Bytes()))
	require.NoError(t, err)

	var out bytes.Buffer
	dst := vbq.NewWriter(&out, h, seqcodec.FailPolicy(), nil, 0)
	err = concat.Recode(concat.VBQSink{W: dst}, []concat.Source{r1, r2})
	require.NoError(t, err)

	r, err := vbq.NewReader(bytes.NewReader(out.Bytes()))
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
	require.Equal(t, 2, count)
}
