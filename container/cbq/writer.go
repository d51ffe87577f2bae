package cbq

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/compressutil"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// DefaultBlockRecords is the number of records a block holds before
// being flushed, absent an explicit BlockSize in the header.
const DefaultBlockRecords = 65536

// Writer buffers whole records and, once a block's record-count
// threshold is reached, splits them into columns and flushes each
// column independently compressed. Buffering whole records (rather
// than columns directly) keeps Append's signature identical to
// vbq.Writer's; only Flush's internal shape differs. A parallel
// encoder (see parproc) never calls Flush concurrently with another
// worker: instead each worker column-encodes and compresses its own
// shard's records into a self-contained block via BuildBlock, off to
// the side, and hands the finished bytes to AppendBuiltBlock only at
// a batch boundary.
type Writer struct {
	w      io.Writer
	header Header
	policy seqcodec.Policy
	rng    *seqcodec.PolicyRNG
	level  compressutil.Level

	wroteHeader bool
	pending     []*container.Record
	count       uint64
}

// NewWriter constructs a Writer. h.BlockSize defaults to
// DefaultBlockRecords if zero.
func NewWriter(w io.Writer, h Header, policy seqcodec.Policy, rng *seqcodec.PolicyRNG, level compressutil.Level) *Writer {
	h.Version = container.FormatVersion
	if h.BlockSize == 0 {
		h.BlockSize = DefaultBlockRecords
	}
	return &Writer{w: w, header: h, policy: policy, rng: rng, level: level}
}

func (cw *Writer) writeHeaderOnce() error {
	if cw.wroteHeader {
		return nil
	}
	if _, err := cw.w.Write(cw.header.Marshal()); err != nil {
		return errs.E(errs.IO, "cbq: writing header", err)
	}
	cw.wroteHeader = true
	return nil
}

// Append buffers r for the current block, then flushes the block once
// it holds the header's BlockSize records. The N-policy is applied at
// Flush time, when the block's columns are built; records it drops are
// left out of the block there.
func (cw *Writer) Append(r *container.Record) error {
	if err := cw.writeHeaderOnce(); err != nil {
		return err
	}
	cw.pending = append(cw.pending, r)
	if uint32(len(cw.pending)) >= cw.header.BlockSize {
		return cw.Flush()
	}
	return nil
}

// buildBlockBytes column-encodes pending under policy/rng and writes
// the resulting preamble and every compressed column to dst. Records
// the policy rejects are dropped before column-building. It is the
// shared core of both Flush (single-producer, policy-driven) and
// BuildBlock (parallel encoders that have already resolved the
// N-policy themselves).
func buildBlockBytes(dst *bytes.Buffer, h Header, policy seqcodec.Policy, rng *seqcodec.PolicyRNG, level compressutil.Level, pending []*container.Record) (kept uint32, err error) {
	var primaryLenCol, primarySeqCol, flagsCol []byte
	var primaryQualCol, primaryHeaderLenCol, primaryHeaderDataCol []byte
	var extendedLenCol, extendedSeqCol, extendedQualCol []byte
	var extendedHeaderLenCol, extendedHeaderDataCol []byte

	var u32 [4]byte
	var n uint32
	for _, r := range pending {
		packed := make([]byte, seqcodec.PackedLen(len(r.Primary), h.BitSize))
		skip, err := seqcodec.Encode(h.BitSize, packed, r.Primary, policy, rng)
		if err != nil {
			return 0, errs.Wrap(err, "cbq: encoding primary sequence")
		}
		if skip {
			continue
		}
		if h.Paired {
			extPacked := make([]byte, seqcodec.PackedLen(len(r.Extended), h.BitSize))
			skip, err := seqcodec.Encode(h.BitSize, extPacked, r.Extended, policy, rng)
			if err != nil {
				return 0, errs.Wrap(err, "cbq: encoding extended sequence")
			}
			if skip {
				continue
			}
			binary.LittleEndian.PutUint32(u32[:], uint32(len(r.Extended)))
			extendedLenCol = append(extendedLenCol, u32[:]...)
			extendedSeqCol = append(extendedSeqCol, extPacked...)
			if h.Quality {
				extendedQualCol = append(extendedQualCol, r.ExtendedQual...)
			}
			if h.Headers {
				binary.LittleEndian.PutUint32(u32[:], uint32(len(r.ExtendedHeader)))
				extendedHeaderLenCol = append(extendedHeaderLenCol, u32[:]...)
				extendedHeaderDataCol = append(extendedHeaderDataCol, r.ExtendedHeader...)
			}
		}

		binary.LittleEndian.PutUint32(u32[:], uint32(len(r.Primary)))
		primaryLenCol = append(primaryLenCol, u32[:]...)
		primarySeqCol = append(primarySeqCol, packed...)
		binary.LittleEndian.PutUint32(u32[:], r.Flags)
		flagsCol = append(flagsCol, u32[:]...)
		if h.Quality {
			primaryQualCol = append(primaryQualCol, r.PrimaryQual...)
		}
		if h.Headers {
			binary.LittleEndian.PutUint32(u32[:], uint32(len(r.PrimaryHeader)))
			primaryHeaderLenCol = append(primaryHeaderLenCol, u32[:]...)
			primaryHeaderDataCol = append(primaryHeaderDataCol, r.PrimaryHeader...)
		}
		n++
	}

	cols := columnOrder(h)
	if err := writeBlockPreamble(dst, n, uint16(len(cols))); err != nil {
		return 0, err
	}
	byKind := map[columnKind][]byte{
		colPrimaryLen:         primaryLenCol,
		colPrimarySeq:         primarySeqCol,
		colFlags:              flagsCol,
		colPrimaryQual:        primaryQualCol,
		colPrimaryHeaderLen:   primaryHeaderLenCol,
		colPrimaryHeaderData:  primaryHeaderDataCol,
		colExtendedLen:        extendedLenCol,
		colExtendedSeq:        extendedSeqCol,
		colExtendedQual:       extendedQualCol,
		colExtendedHeaderLen:  extendedHeaderLenCol,
		colExtendedHeaderData: extendedHeaderDataCol,
	}
	for _, k := range cols {
		if err := writeColumn(dst, byKind[k], h.Compression, level); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// BuildBlock column-encodes and compresses pending into a single
// ready-to-write block, using FailPolicy: callers that pre-resolve
// the N-policy themselves (see transform/encode's CBQProcessor) have
// already guaranteed every sequence is clean by the time it reaches
// here. It touches no Writer state, so multiple workers may call it
// concurrently; hand the result to AppendBuiltBlock under the shared
// Writer's lock.
func BuildBlock(h Header, level compressutil.Level, pending []*container.Record) (built []byte, recordCount uint32, err error) {
	if len(pending) == 0 {
		return nil, 0, nil
	}
	var buf bytes.Buffer
	n, err := buildBlockBytes(&buf, h, seqcodec.FailPolicy(), nil, level, pending)
	if err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), n, nil
}

// Flush builds and writes all columns for the pending records, then
// clears the buffer.
func (cw *Writer) Flush() error {
	if len(cw.pending) == 0 {
		return nil
	}
	var buf bytes.Buffer
	n, err := buildBlockBytes(&buf, cw.header, cw.policy, cw.rng, cw.level, cw.pending)
	if err != nil {
		return err
	}
	if _, err := cw.w.Write(buf.Bytes()); err != nil {
		return errs.E(errs.IO, "cbq: writing block", err)
	}
	cw.count += uint64(n)
	cw.pending = cw.pending[:0]
	return nil
}

// AppendBuiltBlock writes a fully pre-built block (see BuildBlock)
// verbatim, after flushing any block still pending from the
// single-producer Append path. Callers are responsible for
// serializing calls to AppendBuiltBlock across workers, as the
// parallel processor's writer-lock discipline requires.
func (cw *Writer) AppendBuiltBlock(built []byte, recordCount uint32) error {
	if err := cw.writeHeaderOnce(); err != nil {
		return err
	}
	if err := cw.Flush(); err != nil {
		return err
	}
	if len(built) == 0 {
		return nil
	}
	if _, err := cw.w.Write(built); err != nil {
		return errs.E(errs.IO, "cbq: writing block", err)
	}
	cw.count += uint64(recordCount)
	return nil
}

// Level reports the compression level this Writer was constructed
// with, so a parallel encoder building its own blocks off-lock (see
// BuildBlock) compresses them the same way this Writer would.
func (cw *Writer) Level() compressutil.Level { return cw.level }

// Count returns the total number of records written so far, across
// every block flushed or appended.
func (cw *Writer) Count() uint64 { return cw.count }

// Close flushes any pending block (and the header, if no records were
// ever appended).
func (cw *Writer) Close() error {
	if err := cw.writeHeaderOnce(); err != nil {
		return err
	}
	return cw.Flush()
}
