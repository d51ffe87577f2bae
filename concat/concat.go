// Package concat merges multiple containers of the same format into
// one. BQ concatenation is a raw body copy once headers are verified
// identical; VBQ/CBQ re-drive each input's records through a fresh
// encoder, since their block boundaries are file-specific and cannot
// simply be spliced together.
package concat

import (
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/container/cbq"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/internal/errs"
)

// BQ verifies every entry of headers is identical, writes the header
// once to dst, then copies each of bodies (each already positioned
// past its own header) across without repacking.
func BQ(dst io.Writer, headers []bq.Header, bodies []io.Reader) error {
	if len(headers) == 0 {
		return errs.E(errs.NoInputs, "concat: no input files")
	}
	first := headers[0]
	for _, h := range headers[1:] {
		if !h.Equal(first) {
			return errs.E(errs.IncompatibleHeader, "concat: bq inputs have different header shapes")
		}
	}
	if _, err := dst.Write(first.Marshal()); err != nil {
		return errs.E(errs.IO, "concat: writing bq header", err)
	}
	for _, body := range bodies {
		if _, err := io.Copy(dst, body); err != nil {
			return errs.E(errs.IO, "concat: copying bq body", err)
		}
	}
	return nil
}

// Source is the common streaming-read surface bq.Reader, vbq.Reader,
// and cbq.Reader all satisfy; used by VBQ/CBQ concatenation, which
// re-encodes rather than splices.
type Source interface {
	Next() (*container.Record, error)
}

// Sink is the uniform append surface Recode drives. vbq.Writer and
// cbq.Writer differ slightly in their native Append signature (the
// former also reports skipped), so VBQSink/CBQSink adapt them to this
// common shape.
type Sink interface {
	Append(r *container.Record) error
	Close() error
}

// VBQSink adapts a *vbq.Writer to Sink.
type VBQSink struct{ W *vbq.Writer }

func (s VBQSink) Append(r *container.Record) error { _, err := s.W.Append(r); return err }
func (s VBQSink) Close() error                     { return s.W.Close() }

// CBQSink adapts a *cbq.Writer to Sink.
type CBQSink struct{ W *cbq.Writer }

func (s CBQSink) Append(r *container.Record) error { return s.W.Append(r) }
func (s CBQSink) Close() error                     { return s.W.Close() }

// Recode drains every source in srcs, in order, into dst, then closes
// dst. It is used for VBQ and CBQ concatenation: each input's block
// framing is specific to the file it came from, so the only
// compatible merge is to re-encode every record into one fresh
// sequence of blocks.
func Recode(dst Sink, srcs []Source) error {
	if len(srcs) == 0 {
		return errs.E(errs.NoInputs, "concat: no input files")
	}
	for _, src := range srcs {
		for {
			rec, err := src.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if err := dst.Append(rec); err != nil {
				return err
			}
		}
	}
	return dst.Close()
}
