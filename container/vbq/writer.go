package vbq

import (
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/compressutil"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// BlockObserver is invoked after each block is flushed to the
// underlying writer, so a caller (the index sidecar, chiefly) can
// record the block's file offset and record-count span without
// re-scanning the file. fileOffset is the offset of the block's
// header, not its payload.
type BlockObserver func(fileOffset uint64, startOrdinal uint64, bh BlockHeader)

// Writer buffers records into a virtual block and flushes it, as a
// single compressed (or stored) unit, once its uncompressed size
// reaches or exceeds the file's configured block size. A parallel encoder (see
// parproc) never calls Flush concurrently with another worker:
// instead each worker compresses its own shard's bytes into a
// self-contained block off to the side and hands the finished block
// to AppendBlock only at a batch boundary, so the only work this
// Writer ever does under a caller's lock is appending already-built
// bytes.
type Writer struct {
	w      io.Writer
	header Header
	policy seqcodec.Policy
	rng    *seqcodec.PolicyRNG
	level  compressutil.Level

	wroteHeader bool
	buf         []byte
	blockCount  uint32
	nextOrdinal uint64
	fileOffset  uint64

	onBlock BlockObserver
}

// NewWriter constructs a Writer. h.BlockSize defaults to
// DefaultBlockSize if zero.
func NewWriter(w io.Writer, h Header, policy seqcodec.Policy, rng *seqcodec.PolicyRNG, level compressutil.Level) *Writer {
	h.Version = container.FormatVersion
	if h.BlockSize == 0 {
		h.BlockSize = DefaultBlockSize
	}
	return &Writer{w: w, header: h, policy: policy, rng: rng, level: level}
}

// OnBlock installs a callback invoked after each block flush.
func (vw *Writer) OnBlock(f BlockObserver) { vw.onBlock = f }

func (vw *Writer) writeHeaderOnce() error {
	if vw.wroteHeader {
		return nil
	}
	hb := vw.header.Marshal()
	if _, err := vw.w.Write(hb); err != nil {
		return errs.E(errs.IO, "vbq: writing header", err)
	}
	vw.fileOffset += uint64(len(hb))
	vw.wroteHeader = true
	return nil
}

// Append encodes r into the current virtual block, then flushes the
// block if its size has reached or exceeded the configured block size.
// It returns skipped=true if the N-policy dropped r.
func (vw *Writer) Append(r *container.Record) (skipped bool, err error) {
	if err := vw.writeHeaderOnce(); err != nil {
		return false, err
	}
	out, skip, err := EncodeRecord(vw.buf, vw.header, r, vw.policy, vw.rng)
	if err != nil {
		return false, errs.Wrap(err, "vbq: encoding record")
	}
	if skip {
		return true, nil
	}
	vw.buf = out
	vw.blockCount++
	if uint32(len(vw.buf)) >= vw.header.BlockSize {
		return false, vw.Flush()
	}
	return false, nil
}

// Level reports the compression level this Writer was constructed
// with, so a parallel encoder building its own blocks off-lock (see
// BuildBlock) compresses them the same way this Writer would.
func (vw *Writer) Level() compressutil.Level { return vw.level }

// Count returns the total number of records written so far, across
// every block flushed or appended.
func (vw *Writer) Count() uint64 { return vw.nextOrdinal }

// BuildBlock compresses (or stores, per h.Compression) raw
// already-encoded bytes (see EncodeRecord) representing count records
// into a self-contained block, ready to hand to AppendBlock. It
// touches no Writer state, so a parallel encoder may call it
// concurrently on its own shard's bytes, off any shared lock.
func BuildBlock(h Header, level compressutil.Level, raw []byte, count uint32) (BlockHeader, []byte, error) {
	bh := BlockHeader{UncompressedLen: uint64(len(raw)), RecordCount: count}
	payload := raw
	if h.Compression {
		compressed, err := compressutil.Compress(nil, raw, level)
		if err != nil {
			return BlockHeader{}, nil, errs.Wrap(err, "vbq: compressing block")
		}
		if len(compressed) < len(raw) {
			payload = compressed
			bh.CompressedLen = uint64(len(compressed))
		}
	}
	return bh, payload, nil
}

// Flush compresses (or stores) and writes the current block, if
// non-empty, and resets internal buffers.
func (vw *Writer) Flush() error {
	if len(vw.buf) == 0 {
		return nil
	}
	bh, payload, err := BuildBlock(vw.header, vw.level, vw.buf, vw.blockCount)
	if err != nil {
		return err
	}

	startOrdinal := vw.nextOrdinal
	hdrBuf := bh.Marshal()
	if _, err := vw.w.Write(hdrBuf); err != nil {
		return errs.E(errs.IO, "vbq: writing block header", err)
	}
	headerOffset := vw.fileOffset
	vw.fileOffset += uint64(len(hdrBuf))
	if _, err := vw.w.Write(payload); err != nil {
		return errs.E(errs.IO, "vbq: writing block payload", err)
	}
	vw.fileOffset += uint64(len(payload))
	vw.nextOrdinal += uint64(vw.blockCount)

	if vw.onBlock != nil {
		vw.onBlock(headerOffset, startOrdinal, bh)
	}

	vw.buf = vw.buf[:0]
	vw.blockCount = 0
	return nil
}

// Close flushes any pending block (and the header, if no records were
// ever appended).
func (vw *Writer) Close() error {
	if err := vw.writeHeaderOnce(); err != nil {
		return err
	}
	return vw.Flush()
}

// AppendBlock writes a fully-formed block (header + payload) supplied
// by a parallel encoder, bypassing per-record buffering. Callers are
// responsible for serializing calls to AppendBlock across workers, as
// the parallel processor's writer-lock discipline requires.
func (vw *Writer) AppendBlock(bh BlockHeader, payload []byte) error {
	if err := vw.writeHeaderOnce(); err != nil {
		return err
	}
	if err := vw.Flush(); err != nil {
		return err
	}
	startOrdinal := vw.nextOrdinal
	hdrBuf := bh.Marshal()
	if _, err := vw.w.Write(hdrBuf); err != nil {
		return errs.E(errs.IO, "vbq: writing block header", err)
	}
	headerOffset := vw.fileOffset
	vw.fileOffset += uint64(len(hdrBuf))
	if _, err := vw.w.Write(payload); err != nil {
		return errs.E(errs.IO, "vbq: writing block payload", err)
	}
	vw.fileOffset += uint64(len(payload))
	vw.nextOrdinal += uint64(bh.RecordCount)
	if vw.onBlock != nil {
		vw.onBlock(headerOffset, startOrdinal, bh)
	}
	return nil
}
