package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/container/cbq"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/internal/errs"
)

// Count implements `binseq count`.
func Count(ctx context.Context, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errs.E(errs.ConfigError, "count: expected exactly one input container")
	}
	mode, err := probeContainerMode(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return errs.E(errs.IO, "count: opening "+args[0], err)
	}
	defer f.Close()

	switch mode {
	case container.ModeBQ:
		h, err := bq.ReadHeader(f)
		if err != nil {
			return err
		}
		info, err := os.Stat(args[0])
		if err != nil {
			return errs.E(errs.IO, "count: statting "+args[0], err)
		}
		n := (uint64(info.Size()) - bq.HeaderSize) / uint64(h.Stride())
		fmt.Fprintf(out, "format: bq\nversion: %d\nS: %d\nX: %d\nrecords: %d\n", h.Version, h.S, h.X, n)
	case container.ModeVBQ:
		r, err := vbq.NewReader(f)
		if err != nil {
			return err
		}
		n, err := countRecords(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "format: vbq\nversion: %d\nquality: %v\nheaders: %v\nrecords: %d\n", r.Header.Version, r.Header.Quality, r.Header.Headers, n)
	default:
		r, err := cbq.NewReader(f)
		if err != nil {
			return err
		}
		n, err := countRecords(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "format: cbq\nversion: %d\nquality: %v\nheaders: %v\nrecords: %d\n", r.Header.Version, r.Header.Quality, r.Header.Headers, n)
	}
	return nil
}

type nextSource interface {
	Next() (*container.Record, error)
}

func countRecords(src nextSource) (uint64, error) {
	var n uint64
	for {
		_, err := src.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
