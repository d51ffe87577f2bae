// Package decode renders container.Records back out as FASTA or
// FASTQ text, the inverse of transform/encode. Unlike encode, decode
// is not parallelized: output order must match input (ordinal) order,
// and sequential text formatting is already fast enough that the
// complexity of a parallel writer-lock discipline buys nothing here.
package decode

import (
	"bufio"
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
)

// Source is the common streaming-read surface bq.Reader, vbq.Reader,
// and cbq.Reader all already satisfy.
type Source interface {
	Next() (*container.Record, error)
}

// WriteFastaOpts controls WriteFasta's output.
type WriteFastaOpts struct {
	// Mate selects which sequence a paired record contributes:
	// MatePrimary, MateExtended, or MateInterleaved (both, R1 then R2).
	Mate Mate
}

// Mate selects which half of a paired record to emit.
type Mate int

const (
	MatePrimary Mate = iota
	MateExtended
	MateInterleaved
)

func headerFor(ordinal uint64, header []byte, suffix string) string {
	if len(header) > 0 {
		return string(header) + suffix
	}
	return "read" + itoa(ordinal) + suffix
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// WriteFasta reads every record from src and writes it to w in FASTA
// format.
func WriteFasta(w io.Writer, src Source, opts WriteFastaOpts) error {
	bw := bufio.NewWriter(w)
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := writeFastaRecord(bw, rec, opts.Mate); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return errs.E(errs.IO, "decode: flushing fasta output", err)
	}
	return nil
}

func writeFastaRecord(bw *bufio.Writer, rec *container.Record, mate Mate) error {
	switch mate {
	case MateExtended:
		return writeFastaEntry(bw, headerFor(rec.Ordinal, rec.ExtendedHeader, "/2"), rec.Extended)
	case MateInterleaved:
		if err := writeFastaEntry(bw, headerFor(rec.Ordinal, rec.PrimaryHeader, "/1"), rec.Primary); err != nil {
			return err
		}
		if rec.Paired() {
			return writeFastaEntry(bw, headerFor(rec.Ordinal, rec.ExtendedHeader, "/2"), rec.Extended)
		}
		return nil
	default:
		return writeFastaEntry(bw, headerFor(rec.Ordinal, rec.PrimaryHeader, ""), rec.Primary)
	}
}

func writeFastaEntry(bw *bufio.Writer, header string, seq []byte) error {
	if _, err := bw.WriteString(">"); err != nil {
		return errs.E(errs.IO, "decode: writing fasta header", err)
	}
	if _, err := bw.WriteString(header); err != nil {
		return errs.E(errs.IO, "decode: writing fasta header", err)
	}
	if err := bw.WriteByte('\n'); err != nil {
		return errs.E(errs.IO, "decode: writing fasta", err)
	}
	if _, err := bw.Write(seq); err != nil {
		return errs.E(errs.IO, "decode: writing fasta sequence", err)
	}
	return bw.WriteByte('\n')
}

// syntheticQuality fills a buffer with a flat, maximum-confidence
// Phred+33 quality string for sources with no recorded quality
// (e.g. a BQ file, which never stores it).
func syntheticQuality(n int) []byte {
	q := make([]byte, n)
	for i := range q {
		q[i] = 'I' // Phred 40
	}
	return q
}

// WriteFastq reads every record from src and writes it to w in FASTQ
// format. Records with no recorded quality get a synthetic flat
// Phred-40 quality string.
func WriteFastq(w io.Writer, src Source, opts WriteFastaOpts) error {
	bw := bufio.NewWriter(w)
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := writeFastqRecord(bw, rec, opts.Mate); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return errs.E(errs.IO, "decode: flushing fastq output", err)
	}
	return nil
}

func qualOrSynthetic(qual, seq []byte) []byte {
	if len(qual) == len(seq) {
		return qual
	}
	return syntheticQuality(len(seq))
}

func writeFastqRecord(bw *bufio.Writer, rec *container.Record, mate Mate) error {
	switch mate {
	case MateExtended:
		return writeFastqEntry(bw, headerFor(rec.Ordinal, rec.ExtendedHeader, "/2"), rec.Extended, qualOrSynthetic(rec.ExtendedQual, rec.Extended))
	case MateInterleaved:
		if err := writeFastqEntry(bw, headerFor(rec.Ordinal, rec.PrimaryHeader, "/1"), rec.Primary, qualOrSynthetic(rec.PrimaryQual, rec.Primary)); err != nil {
			return err
		}
		if rec.Paired() {
			return writeFastqEntry(bw, headerFor(rec.Ordinal, rec.ExtendedHeader, "/2"), rec.Extended, qualOrSynthetic(rec.ExtendedQual, rec.Extended))
		}
		return nil
	default:
		return writeFastqEntry(bw, headerFor(rec.Ordinal, rec.PrimaryHeader, ""), rec.Primary, qualOrSynthetic(rec.PrimaryQual, rec.Primary))
	}
}

func writeFastqEntry(bw *bufio.Writer, header string, seq, qual []byte) error {
	if _, err := bw.WriteString("@" + header + "\n"); err != nil {
		return errs.E(errs.IO, "decode: writing fastq header", err)
	}
	if _, err := bw.Write(seq); err != nil {
		return errs.E(errs.IO, "decode: writing fastq sequence", err)
	}
	if _, err := bw.WriteString("\n+\n"); err != nil {
		return errs.E(errs.IO, "decode: writing fastq separator", err)
	}
	if _, err := bw.Write(qual); err != nil {
		return errs.E(errs.IO, "decode: writing fastq quality", err)
	}
	return bw.WriteByte('\n')
}

// WriteFastaSplit reads every record from src and writes it as FASTA
// across two sinks: r1 gets every record's primary mate, r2 gets its
// extended mate. Every record src yields must be paired; callers are
// expected to have rejected non-paired input up front (split on
// non-paired input is a config error, not a per-record one).
func WriteFastaSplit(r1, r2 io.Writer, src Source) error {
	bw1, bw2 := bufio.NewWriter(r1), bufio.NewWriter(r2)
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if !rec.Paired() {
			return errs.E(errs.ConfigError, "decode: split output requires paired input")
		}
		if err := writeFastaEntry(bw1, headerFor(rec.Ordinal, rec.PrimaryHeader, "/1"), rec.Primary); err != nil {
			return err
		}
		if err := writeFastaEntry(bw2, headerFor(rec.Ordinal, rec.ExtendedHeader, "/2"), rec.Extended); err != nil {
			return err
		}
	}
	if err := bw1.Flush(); err != nil {
		return errs.E(errs.IO, "decode: flushing fasta r1 output", err)
	}
	if err := bw2.Flush(); err != nil {
		return errs.E(errs.IO, "decode: flushing fasta r2 output", err)
	}
	return nil
}

// WriteFastqSplit is WriteFastaSplit's FASTQ counterpart.
func WriteFastqSplit(r1, r2 io.Writer, src Source) error {
	bw1, bw2 := bufio.NewWriter(r1), bufio.NewWriter(r2)
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if !rec.Paired() {
			return errs.E(errs.ConfigError, "decode: split output requires paired input")
		}
		if err := writeFastqEntry(bw1, headerFor(rec.Ordinal, rec.PrimaryHeader, "/1"), rec.Primary, qualOrSynthetic(rec.PrimaryQual, rec.Primary)); err != nil {
			return err
		}
		if err := writeFastqEntry(bw2, headerFor(rec.Ordinal, rec.ExtendedHeader, "/2"), rec.Extended, qualOrSynthetic(rec.ExtendedQual, rec.Extended)); err != nil {
			return err
		}
	}
	if err := bw1.Flush(); err != nil {
		return errs.E(errs.IO, "decode: flushing fastq r1 output", err)
	}
	if err := bw2.Flush(); err != nil {
		return errs.E(errs.IO, "decode: flushing fastq r2 output", err)
	}
	return nil
}
