package bq

import (
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// Writer appends fixed-length records to an underlying io.Writer,
// emitting the header on the first write. All records must share the
// primary length S (and extended length X, if paired) declared at
// construction; a mismatched record is rejected rather than silently
// truncated or padded.
type Writer struct {
	w      io.Writer
	header Header
	policy seqcodec.Policy
	rng    *seqcodec.PolicyRNG

	wroteHeader bool
	count       uint64
	skipped     uint64
}

// NewWriter constructs a Writer for the given header shape. policy
// governs ambiguous-base resolution in 2-bit mode; rng is required
// when policy is RandomDraw.
func NewWriter(w io.Writer, h Header, policy seqcodec.Policy, rng *seqcodec.PolicyRNG) *Writer {
	h.Version = container.FormatVersion
	return &Writer{w: w, header: h, policy: policy, rng: rng}
}

func (bw *Writer) writeHeaderOnce() error {
	if bw.wroteHeader {
		return nil
	}
	if _, err := bw.w.Write(bw.header.Marshal()); err != nil {
		return errs.E(errs.IO, "bq: writing header", err)
	}
	bw.wroteHeader = true
	return nil
}

// Append packs and writes one record. It returns skipped=true if the
// policy is IgnoreRecord and the record was dropped.
func (bw *Writer) Append(r *container.Record) (skipped bool, err error) {
	if err := bw.writeHeaderOnce(); err != nil {
		return false, err
	}
	raw, skip, err := PackRecord(bw.header, r, bw.policy, bw.rng)
	if err != nil {
		return false, err
	}
	if skip {
		bw.skipped++
		return true, nil
	}
	if _, err := bw.w.Write(raw); err != nil {
		return false, errs.E(errs.IO, "bq: writing record", err)
	}
	bw.count++
	return false, nil
}

// AppendPacked writes a pre-packed record's raw bytes verbatim. The
// parallel BQ encoder (transform/encode.BQProcessor) uses it to append
// records its workers have already packed against the same header.
func (bw *Writer) AppendPacked(raw []byte) error {
	if err := bw.writeHeaderOnce(); err != nil {
		return err
	}
	if len(raw) != bw.header.Stride() {
		return errs.E(errs.LengthMismatch, "bq: packed record has wrong stride for this file")
	}
	if _, err := bw.w.Write(raw); err != nil {
		return errs.E(errs.IO, "bq: writing packed record", err)
	}
	bw.count++
	return nil
}

// Count returns the number of records successfully written so far.
func (bw *Writer) Count() uint64 { return bw.count }

// Skipped returns the number of records dropped under IgnoreRecord
// policy so far.
func (bw *Writer) Skipped() uint64 { return bw.skipped }

// Close flushes the header if no records were ever written, so that
// an empty input still produces a valid, empty BQ file.
func (bw *Writer) Close() error {
	return bw.writeHeaderOnce()
}
