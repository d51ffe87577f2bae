package cmd

import (
	"context"
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/pipefanout"
	"github.com/arcinstitute/binseq/transform/decode"
	"github.com/spf13/pflag"
)

// Pipe implements `binseq pipe`: fans a BQ or VBQ container's records
// out across a set of named FIFOs, one contiguous record range per
// pipe, so downstream tools can each consume their own partition
// concurrently without an intermediate file split.
func Pipe(ctx context.Context, out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("pipe", pflag.ContinueOnError)
	basename := fs.StringP("basename", "b", "", "basename for the created pipes: <basename>.0, <basename>.1, ...")
	numPipes := fs.IntP("pipes", "T", 1, "number of pipes to create")
	format := fs.StringP("format", "f", "fasta", "output format written to each pipe: fasta|fastq")
	mate := fs.String("mate", "1", "which mate to emit for paired containers: 1|2|both")
	if err := fs.Parse(args); err != nil {
		return err
	}
	positional := fs.Args()
	if len(positional) != 1 {
		return errs.E(errs.ConfigError, "pipe: expected exactly one input container")
	}
	if *basename == "" {
		return errs.E(errs.ConfigError, "pipe: --basename is required")
	}

	mode, err := probeContainerMode(positional[0])
	if err != nil {
		return err
	}

	var src pipefanout.RandomSource
	switch mode {
	case container.ModeBQ:
		rr, err := bq.OpenRandom(positional[0])
		if err != nil {
			return err
		}
		defer rr.Close()
		src = rr
	case container.ModeVBQ:
		rr, err := vbq.OpenRandom(positional[0])
		if err != nil {
			return err
		}
		defer rr.Close()
		src = rr
	default:
		return errs.E(errs.ConfigError, "pipe: cbq containers have no random-access reader; decode or recode to vbq first")
	}

	var mateSel decode.Mate
	switch *mate {
	case "1":
		mateSel = decode.MatePrimary
	case "2":
		mateSel = decode.MateExtended
	case "both":
		mateSel = decode.MateInterleaved
	default:
		return errs.E(errs.ConfigError, "pipe: --mate must be 1, 2, or both")
	}

	var fmtSel pipefanout.Format
	switch *format {
	case "fastq":
		fmtSel = pipefanout.FormatFastq
	case "fasta":
		fmtSel = pipefanout.FormatFasta
	default:
		return errs.E(errs.ConfigError, "pipe: --format must be fasta or fastq")
	}

	return pipefanout.Run(src, pipefanout.Opts{
		Basename: *basename,
		NumPipes: *numPipes,
		Format:   fmtSel,
		Mate:     mateSel,
	})
}
