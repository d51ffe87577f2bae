package cmd

import (
	"context"
	"io"
	"os"

	"github.com/arcinstitute/binseq/concat"
	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/container/cbq"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/spf13/pflag"
)

// Cat implements `binseq cat`.
func Cat(ctx context.Context, out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("cat", pflag.ContinueOnError)
	outPath := fs.StringP("output", "o", "", "output container path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	inputs := fs.Args()
	if len(inputs) == 0 {
		return errs.E(errs.NoInputs, "cat: no input files given")
	}
	if *outPath == "" {
		return errs.E(errs.ConfigError, "cat: --output is required")
	}

	mode, err := probeContainerMode(inputs[0])
	if err != nil {
		return err
	}
	for _, p := range inputs[1:] {
		m, err := probeContainerMode(p)
		if err != nil {
			return err
		}
		if m != mode {
			return errs.E(errs.ModeMismatch, "cat: cannot mix container formats")
		}
	}

	outFile, err := os.Create(*outPath)
	if err != nil {
		return errs.E(errs.IO, "cat: creating output "+*outPath, err)
	}
	defer outFile.Close()

	switch mode {
	case container.ModeBQ:
		return catBQ(outFile, inputs)
	case container.ModeVBQ:
		return catVBQ(outFile, inputs)
	default:
		return catCBQ(outFile, inputs)
	}
}

func catBQ(outFile *os.File, inputs []string) error {
	headers := make([]bq.Header, len(inputs))
	bodies := make([]io.Reader, len(inputs))
	for i, p := range inputs {
		f, err := os.Open(p)
		if err != nil {
			return errs.E(errs.IO, "cat: opening "+p, err)
		}
		defer f.Close()
		h, err := bq.ReadHeader(f)
		if err != nil {
			return err
		}
		headers[i] = h
		bodies[i] = f
	}
	return concat.BQ(outFile, headers, bodies)
}

func catVBQ(outFile *os.File, inputs []string) error {
	srcs := make([]concat.Source, len(inputs))
	var firstHeader vbq.Header
	for i, p := range inputs {
		f, err := os.Open(p)
		if err != nil {
			return errs.E(errs.IO, "cat: opening "+p, err)
		}
		defer f.Close()
		r, err := vbq.NewReader(f)
		if err != nil {
			return err
		}
		if i == 0 {
			firstHeader = r.Header
		} else if r.Header.BitSize != firstHeader.BitSize || r.Header.Paired != firstHeader.Paired || r.Header.Quality != firstHeader.Quality || r.Header.Headers != firstHeader.Headers {
			return errs.E(errs.IncompatibleHeader, "cat: vbq inputs have incompatible header shapes")
		}
		srcs[i] = r
	}
	h := vbq.Header{
		BitSize: firstHeader.BitSize, Paired: firstHeader.Paired, Quality: firstHeader.Quality,
		Headers: firstHeader.Headers, Compression: firstHeader.Compression, BlockSize: vbq.DefaultBlockSize,
	}
	w := vbq.NewWriter(outFile, h, seqcodec.FailPolicy(), nil, 0)
	return concat.Recode(concat.VBQSink{W: w}, srcs)
}

func catCBQ(outFile *os.File, inputs []string) error {
	srcs := make([]concat.Source, len(inputs))
	var firstHeader cbq.Header
	for i, p := range inputs {
		f, err := os.Open(p)
		if err != nil {
			return errs.E(errs.IO, "cat: opening "+p, err)
		}
		defer f.Close()
		r, err := cbq.NewReader(f)
		if err != nil {
			return err
		}
		if i == 0 {
			firstHeader = r.Header
		} else if r.Header.BitSize != firstHeader.BitSize || r.Header.Paired != firstHeader.Paired || r.Header.Quality != firstHeader.Quality || r.Header.Headers != firstHeader.Headers {
			return errs.E(errs.IncompatibleHeader, "cat: cbq inputs have incompatible header shapes")
		}
		srcs[i] = r
	}
	h := cbq.Header{
		BitSize: firstHeader.BitSize, Paired: firstHeader.Paired, Quality: firstHeader.Quality,
		Headers: firstHeader.Headers, Compression: firstHeader.Compression, BlockSize: cbq.DefaultBlockRecords,
	}
	w := cbq.NewWriter(outFile, h, seqcodec.FailPolicy(), nil, 0)
	return concat.Recode(concat.CBQSink{W: w}, srcs)
}
