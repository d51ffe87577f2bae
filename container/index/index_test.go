package index_test

import (
	"os"
	"testing"

	"github.com/arcinstitute/binseq/compressutil"
	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/index"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/stretchr/testify/require"
)

func TestBuildAndLookup(t *testing.T) {
	path := t.TempDir() + "/r.vbq"
	f, err := os.Create(path)
	require.NoError(t, err)

	h := vbq.Header{BitSize: seqcodec.Bits2, Compression: true, BlockSize: 8}
	w := vbq.NewWriter(f, h, seqcodec.FailPolicy(), nil, compressutil.LevelDefault)
	for i := 0; i < 5; i++ {
		_, err := w.Append(&container.Record{Primary: []byte("ACGTACGT")})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	ix, err := index.BuildVBQ(path)
	require.NoError(t, err)
	require.EqualValues(t, 5, ix.NumRecords())

	require.NoError(t, index.WriteFile(path, ix))
	reread, err := index.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, ix.ContentID, reread.ContentID)

	e, ok := reread.Lookup(3)
	require.True(t, ok)
	require.LessOrEqual(t, e.StartingOrdinal, uint64(3))
	require.Greater(t, e.StartingOrdinal+uint64(e.RecordCount), uint64(3))

	_, ok = reread.Lookup(10)
	require.False(t, ok)
}

func TestStaleSidecarDetected(t *testing.T) {
	path := t.TempDir() + "/r.vbq"
	f, err := os.Create(path)
	require.NoError(t, err)
	h := vbq.Header{BitSize: seqcodec.Bits2}
	w := vbq.NewWriter(f, h, seqcodec.FailPolicy(), nil, compressutil.LevelDefault)
	_, err = w.Append(&container.Record{Primary: []byte("AC")})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	ix, err := index.BuildVBQ(path)
	require.NoError(t, err)
	require.NoError(t, index.WriteFile(path, ix))

	// Mutate the container file after the sidecar was written.
	f, err = os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xff}, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = index.ReadFile(path)
	require.Error(t, err)
}
