package cbq

import (
	"encoding/binary"
	"io"

	"github.com/arcinstitute/binseq/compressutil"
	"github.com/arcinstitute/binseq/internal/errs"
)

// columnKind identifies one of a block's column streams. The set and
// order present in a given block is fully determined by the file
// header's Paired/Quality/Headers flags, via columnOrder, so it is
// never itself written to disk.
type columnKind int

const (
	colPrimaryLen columnKind = iota
	colPrimarySeq
	colFlags
	colPrimaryQual
	colPrimaryHeaderLen
	colPrimaryHeaderData
	colExtendedLen
	colExtendedSeq
	colExtendedQual
	colExtendedHeaderLen
	colExtendedHeaderData
)

// columnOrder returns the fixed column sequence for a file with the
// given header flags.
func columnOrder(h Header) []columnKind {
	cols := []columnKind{colPrimaryLen, colPrimarySeq, colFlags}
	if h.Quality {
		cols = append(cols, colPrimaryQual)
	}
	if h.Headers {
		cols = append(cols, colPrimaryHeaderLen, colPrimaryHeaderData)
	}
	if h.Paired {
		cols = append(cols, colExtendedLen, colExtendedSeq)
		if h.Quality {
			cols = append(cols, colExtendedQual)
		}
		if h.Headers {
			cols = append(cols, colExtendedHeaderLen, colExtendedHeaderData)
		}
	}
	return cols
}

// blockPreambleSize is the fixed size, in bytes, of the per-block
// preamble naming the record count and column count.
const blockPreambleSize = 8

// columnHeaderSize is the fixed size, in bytes, of one column's
// compression framing.
const columnHeaderSize = 16

// writeColumn compresses (or stores) one column's raw bytes and
// writes its framing plus payload to w.
func writeColumn(w io.Writer, raw []byte, compress bool, level compressutil.Level) error {
	payload := raw
	compressedLen := uint64(0)
	if compress {
		c, err := compressutil.Compress(nil, raw, level)
		if err == nil && len(c) < len(raw) {
			payload = c
			compressedLen = uint64(len(c))
		}
	}
	hdr := make([]byte, columnHeaderSize)
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(len(raw)))
	binary.LittleEndian.PutUint64(hdr[8:16], compressedLen)
	if _, err := w.Write(hdr); err != nil {
		return errs.E(errs.IO, "cbq: writing column header", err)
	}
	if _, err := w.Write(payload); err != nil {
		return errs.E(errs.IO, "cbq: writing column payload", err)
	}
	return nil
}

// readColumn reads one column's framing and payload from r, returning
// its decompressed bytes.
func readColumn(r io.Reader) ([]byte, error) {
	hdr := make([]byte, columnHeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, errs.E(errs.IO, "cbq: reading column header", err)
	}
	uncompLen := binary.LittleEndian.Uint64(hdr[0:8])
	compLen := binary.LittleEndian.Uint64(hdr[8:16])

	payloadLen := uncompLen
	if compLen != 0 {
		payloadLen = compLen
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errs.E(errs.IO, "cbq: reading column payload", err)
	}
	if compLen == 0 {
		return payload, nil
	}
	return compressutil.Decompress(make([]byte, 0, uncompLen), payload)
}

// writeBlockPreamble writes the fixed preamble preceding a block's
// columns.
func writeBlockPreamble(w io.Writer, recordCount uint32, numColumns uint16) error {
	buf := make([]byte, blockPreambleSize)
	binary.LittleEndian.PutUint32(buf[0:4], recordCount)
	binary.LittleEndian.PutUint16(buf[4:6], numColumns)
	if _, err := w.Write(buf); err != nil {
		return errs.E(errs.IO, "cbq: writing block preamble", err)
	}
	return nil
}

// readBlockPreamble reads the fixed preamble preceding a block's
// columns, returning io.EOF unwrapped at a clean block boundary.
func readBlockPreamble(r io.Reader) (recordCount uint32, numColumns uint16, err error) {
	buf := make([]byte, blockPreambleSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			return 0, 0, io.EOF
		}
		return 0, 0, errs.E(errs.IO, "cbq: reading block preamble", err)
	}
	return binary.LittleEndian.Uint32(buf[0:4]), binary.LittleEndian.Uint16(buf[4:6]), nil
}

// BlockSummary describes one block's framing on disk, as discovered by
// ScanBlock without decompressing any column payload.
type BlockSummary struct {
	RecordCount     uint32
	NumColumns      uint16
	UncompressedLen uint64 // sum of every column's decompressed length
	OnDiskLen       int64  // bytes occupied by the block, preamble included
}

// ScanBlock reads one block's preamble and every column header from r,
// seeking s past each column's payload, and returns the block's framing
// without decompressing anything. It returns io.EOF unwrapped at a
// clean block boundary (immediately after the last block).
func ScanBlock(r io.Reader, s io.Seeker) (BlockSummary, error) {
	recordCount, numColumns, err := readBlockPreamble(r)
	if err == io.EOF {
		return BlockSummary{}, io.EOF
	}
	if err != nil {
		return BlockSummary{}, err
	}

	summary := BlockSummary{RecordCount: recordCount, NumColumns: numColumns, OnDiskLen: blockPreambleSize}
	hdr := make([]byte, columnHeaderSize)
	for i := uint16(0); i < numColumns; i++ {
		if _, err := io.ReadFull(r, hdr); err != nil {
			return BlockSummary{}, errs.E(errs.IO, "cbq: reading column header", err)
		}
		uncompLen := binary.LittleEndian.Uint64(hdr[0:8])
		compLen := binary.LittleEndian.Uint64(hdr[8:16])
		payloadLen := uncompLen
		if compLen != 0 {
			payloadLen = compLen
		}
		if _, err := s.Seek(int64(payloadLen), io.SeekCurrent); err != nil {
			return BlockSummary{}, errs.E(errs.IO, "cbq: seeking past column payload", err)
		}
		summary.UncompressedLen += uncompLen
		summary.OnDiskLen += int64(columnHeaderSize) + int64(payloadLen)
	}
	return summary, nil
}
