// Package pipefanout fans a random-access container out into a set of
// named pipes, one worker goroutine per pipe. Opening a FIFO for
// writing blocks until a reader attaches, so the only way to have N
// pipes open for writing concurrently is one goroutine per pipe
// dedicated to that blocking open; a single shared goroutine opening
// them in sequence would deadlock on the first pipe nobody has
// attached to yet.
package pipefanout

import (
	"fmt"
	"io"
	"os"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/traverse"
	"github.com/arcinstitute/binseq/transform/decode"
	"golang.org/x/sys/unix"
)

// RandomSource is the common random-access surface bq.RandomReader
// and vbq.RandomReader both satisfy.
type RandomSource interface {
	Len() uint64
	At(i uint64) (*container.Record, error)
}

// Format selects the text format written to each pipe.
type Format int

const (
	FormatFasta Format = iota
	FormatFastq
)

// Opts controls a fanout run.
type Opts struct {
	Basename string // pipes are named "<basename>.<n>"
	NumPipes int
	Format   Format
	Mate     decode.Mate
}

func pipePath(basename string, n int) string {
	return fmt.Sprintf("%s.%d", basename, n)
}

// partitionBounds splits [0,total) into numPipes contiguous ranges,
// the last absorbing any remainder.
func partitionBounds(total uint64, numPipes int) []uint64 {
	bounds := make([]uint64, numPipes+1)
	per := total / uint64(numPipes)
	for i := 0; i < numPipes; i++ {
		bounds[i] = uint64(i) * per
	}
	bounds[numPipes] = total
	return bounds
}

// Run creates opts.NumPipes FIFOs and, for each, spawns a worker that
// opens it for writing (blocking until a reader connects) then writes
// its disjoint record range from src in the requested format. All
// pipes are unlinked on return, including on error.
func Run(src RandomSource, opts Opts) error {
	if opts.NumPipes <= 0 {
		return errs.E(errs.ConfigError, "pipefanout: NumPipes must be positive")
	}
	paths := make([]string, opts.NumPipes)
	for i := range paths {
		p := pipePath(opts.Basename, i)
		if err := unix.Mkfifo(p, 0o600); err != nil {
			for _, done := range paths[:i] {
				os.Remove(done)
			}
			return errs.E(errs.IO, "pipefanout: creating named pipe "+p, err)
		}
		paths[i] = p
	}
	defer func() {
		for _, p := range paths {
			os.Remove(p)
		}
	}()

	total := src.Len()
	bounds := partitionBounds(total, opts.NumPipes)

	return traverse.Each(opts.NumPipes).Do(func(i int) error {
		return writeRange(paths[i], src, bounds[i], bounds[i+1], opts)
	})
}

func writeRange(path string, src RandomSource, start, end uint64, opts Opts) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return errs.E(errs.IO, "pipefanout: opening pipe "+path, err)
	}
	defer f.Close()

	it := &rangeSource{src: src, i: start, end: end}
	switch opts.Format {
	case FormatFastq:
		return decode.WriteFastq(f, it, decode.WriteFastaOpts{Mate: opts.Mate})
	default:
		return decode.WriteFasta(f, it, decode.WriteFastaOpts{Mate: opts.Mate})
	}
}

// rangeSource adapts a RandomSource plus [i,end) bounds to
// decode.Source's streaming Next() shape.
type rangeSource struct {
	src    RandomSource
	i, end uint64
}

func (r *rangeSource) Next() (*container.Record, error) {
	if r.i >= r.end {
		return nil, io.EOF
	}
	rec, err := r.src.At(r.i)
	if err != nil {
		return nil, err
	}
	r.i++
	return rec, nil
}
