package cmd

import (
	"context"
	"io"
	"os"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/container/cbq"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/log"
	"github.com/arcinstitute/binseq/transform/decode"
	"github.com/spf13/pflag"
)

// peekSource lets Decode inspect a container's first record (to
// decide whether split output or a requested mate is even possible)
// before replaying it through the normal decode path.
type peekSource struct {
	src   decode.Source
	first *container.Record
	used  bool
}

func (p *peekSource) Next() (*container.Record, error) {
	if !p.used {
		p.used = true
		return p.first, nil
	}
	return p.src.Next()
}

func openContainerReader(path string) (decode.Source, error) {
	mode, err := probeContainerMode(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.E(errs.IO, "decode: opening "+path, err)
	}
	switch mode {
	case container.ModeBQ:
		return bq.NewReader(f)
	case container.ModeVBQ:
		return vbq.NewReader(f)
	default:
		return cbq.NewReader(f)
	}
}

// Decode implements `binseq decode`.
func Decode(ctx context.Context, out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	outPath := fs.StringP("output", "o", "", "output path (interleaved) or output prefix (--split); defaults to stdout")
	format := fs.String("format", "fasta", "output format: fasta|fastq")
	mate := fs.String("mate", "1", "which mate to emit for paired containers: 1|2|both")
	split := fs.Bool("split", false, "write R1/R2 to two files under --output as a prefix, instead of one interleaved stream")
	if err := fs.Parse(args); err != nil {
		return err
	}
	positional := fs.Args()
	if len(positional) != 1 {
		return errs.E(errs.ConfigError, "decode: expected exactly one input container")
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
		return errs.E(errs.ConfigError, "decode: --mate must be 1, 2, or both")
	}

	src, err := openContainerReader(positional[0])
	if err != nil {
		return err
	}
	peeked, first, err := peekPaired(src)
	if err != nil {
		return err
	}

	if *split {
		if !first {
			return errs.E(errs.ConfigError, "decode: --split requires paired input")
		}
		if *outPath == "" {
			return errs.E(errs.ConfigError, "decode: --split requires --output as a prefix")
		}
		r1, err := os.Create(*outPath + "_R1." + *format)
		if err != nil {
			return errs.E(errs.IO, "decode: creating split r1 output", err)
		}
		defer r1.Close()
		r2, err := os.Create(*outPath + "_R2." + *format)
		if err != nil {
			return errs.E(errs.IO, "decode: creating split r2 output", err)
		}
		defer r2.Close()
		if *format == "fastq" {
			return decode.WriteFastqSplit(r1, r2, peeked)
		}
		return decode.WriteFastaSplit(r1, r2, peeked)
	}

	if !first && mateSel != decode.MatePrimary {
		log.Printf("decode: --mate=%s requested but input is not paired; emitting the primary mate only", *mate)
		mateSel = decode.MatePrimary
	}

	w := out
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return errs.E(errs.IO, "decode: creating output "+*outPath, err)
		}
		defer f.Close()
		w = f
	}

	opts := decode.WriteFastaOpts{Mate: mateSel}
	switch *format {
	case "fastq":
		return decode.WriteFastq(w, peeked, opts)
	default:
		return decode.WriteFasta(w, peeked, opts)
	}
}

// peekPaired reads src's first record (if any) to determine whether
// the container is paired, without losing that record: it returns a
// Source that replays it before continuing from src. An empty
// container (io.EOF immediately) is treated as non-paired.
func peekPaired(src decode.Source) (decode.Source, bool, error) {
	rec, err := src.Next()
	if err == io.EOF {
		return &peekSource{src: src, first: rec, used: true}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &peekSource{src: src, first: rec}, rec.Paired(), nil
}
