package cmd

import (
	"context"
	"io"
	"os"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/transform/decode"
	"github.com/arcinstitute/binseq/transform/sample"
	"github.com/spf13/pflag"
)

// sampledSource wraps a decode.Source, skipping every record the
// Sampler rejects so decode.WriteFasta/WriteFastq can stream straight
// through it without knowing sampling happened at all.
type sampledSource struct {
	src     decode.Source
	sampler *sample.Sampler
}

func (s *sampledSource) Next() (*container.Record, error) {
	for {
		rec, err := s.src.Next()
		if err != nil {
			return nil, err
		}
		if s.sampler.Keep(rec.Ordinal) {
			return rec, nil
		}
	}
}

// Sample implements `binseq sample`: writes a seeded Bernoulli
// subsample of a container's records out as FASTA or FASTQ.
func Sample(ctx context.Context, out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("sample", pflag.ContinueOnError)
	outPath := fs.StringP("output", "o", "", "output path; defaults to stdout")
	rate := fs.Float64P("fraction", "F", 0.1, "per-record keep probability, in [0,1]")
	seed := fs.Uint64P("seed", "S", 0, "sampling seed")
	format := fs.String("format", "fasta", "output format: fasta|fastq")
	mate := fs.String("mate", "1", "which mate to emit for paired containers: 1|2|both")
	if err := fs.Parse(args); err != nil {
		return err
	}
	positional := fs.Args()
	if len(positional) != 1 {
		return errs.E(errs.ConfigError, "sample: expected exactly one input container")
	}

	src, err := openContainerReader(positional[0])
	if err != nil {
		return err
	}
	sampled := &sampledSource{src: src, sampler: sample.New(*rate, *seed)}

	var mateSel decode.Mate
	switch *mate {
	case "1":
		mateSel = decode.MatePrimary
	case "2":
		mateSel = decode.MateExtended
	case "both":
		mateSel = decode.MateInterleaved
	default:
		return errs.E(errs.ConfigError, "sample: --mate must be 1, 2, or both")
	}

	w := out
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return errs.E(errs.IO, "sample: creating output "+*outPath, err)
		}
		defer f.Close()
		w = f
	}

	opts := decode.WriteFastaOpts{Mate: mateSel}
	switch *format {
	case "fastq":
		return decode.WriteFastq(w, sampled, opts)
	default:
		return decode.WriteFasta(w, sampled, opts)
	}
}
