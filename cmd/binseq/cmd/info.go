package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/container/cbq"
	"github.com/arcinstitute/binseq/container/index"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/spf13/pflag"
)

// Info implements `binseq info`.
func Info(ctx context.Context, out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("info", pflag.ContinueOnError)
	dumpBlocks := fs.Bool("blocks", false, "dump the index sidecar's block entries, if a sidecar exists (vbq/cbq only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	positional := fs.Args()
	if len(positional) != 1 {
		return errs.E(errs.ConfigError, "info: expected exactly one input container")
	}
	path := positional[0]

	mode, err := probeContainerMode(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return errs.E(errs.IO, "info: opening "+path, err)
	}
	defer f.Close()

	switch mode {
	case container.ModeBQ:
		h, err := bq.ReadHeader(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "format: bq\nversion: %d\npaired: %v\nbit-size: %d\nS: %d\nX: %d\nstride: %d\n", h.Version, h.Paired, h.BitSize, h.S, h.X, h.Stride())
	case container.ModeVBQ:
		h, err := vbq.ReadHeader(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "format: vbq\nversion: %d\npaired: %v\nquality: %v\nheaders: %v\ncompression: %v\nbit-size: %d\nblock-size: %d\n",
			h.Version, h.Paired, h.Quality, h.Headers, h.Compression, h.BitSize, h.BlockSize)
	default:
		h, err := cbq.ReadHeader(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "format: cbq\nversion: %d\npaired: %v\nquality: %v\nheaders: %v\ncompression: %v\nbit-size: %d\nblock-size: %d\n",
			h.Version, h.Paired, h.Quality, h.Headers, h.Compression, h.BitSize, h.BlockSize)
	}

	if *dumpBlocks {
		ix, err := index.ReadFile(path)
		if err == nil {
			fmt.Fprintf(out, "\nindex: %d blocks\n", len(ix.Entries))
			for i, e := range ix.Entries {
				fmt.Fprintf(out, "  block %d: offset=%d start_ordinal=%d records=%d\n", i, e.FileOffset, e.StartingOrdinal, e.RecordCount)
			}
		} else {
			fmt.Fprintf(out, "\nindex: none (%v)\n", err)
		}
	}
	return nil
}
