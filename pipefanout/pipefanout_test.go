package pipefanout_test

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/pipefanout"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/stretchr/testify/require"
)

func buildBQFile(t *testing.T, path string, n int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	h := bq.Header{BitSize: seqcodec.Bits2, S: 4}
	w := bq.NewWriter(f, h, seqcodec.FailPolicy(), nil)
	for i := 0; i < n; i++ {
		_, err := w.Append(&container.Record{Primary: []byte("ACGT")})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestRunFansOutAllRecords(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "in.bq")
	buildBQFile(t, dataPath, 10)

	src, err := bq.OpenRandom(dataPath)
	require.NoError(t, err)
	defer src.Close()

	basename := filepath.Join(dir, "out")
	opts := pipefanout.Opts{Basename: basename, NumPipes: 3, Format: pipefanout.FormatFasta}

	var wg sync.WaitGroup
	counts := make([]int, opts.NumPipes)
	wg.Add(opts.NumPipes)
	for i := 0; i < opts.NumPipes; i++ {
		i := i
		go func() {
			defer wg.Done()
			path := basename + "." + itoa(i)
			for {
				if _, err := os.Stat(path); err == nil {
					break
				}
			}
			f, err := os.Open(path)
			if err != nil {
				return
			}
			defer f.Close()
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				line := sc.Text()
				if len(line) > 0 && line[0] == '>' {
					counts[i]++
				}
			}
		}()
	}

	require.NoError(t, pipefanout.Run(src, opts))
	wg.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	require.Equal(t, 10, total)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
