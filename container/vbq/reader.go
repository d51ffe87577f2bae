package vbq

import (
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/compressutil"
	"github.com/arcinstitute/binseq/internal/errs"
)

// Reader streams records from an arbitrary byte source, decompressing
// one virtual block at a time and iterating its records in order.
type Reader struct {
	r      io.Reader
	Header Header

	block   []byte
	off     int
	ordinal uint64
}

// NewReader reads and validates the header, then returns a Reader
// positioned before the first block.
func NewReader(r io.Reader) (*Reader, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, Header: h}, nil
}

func (vr *Reader) fillBlock() error {
	bh, err := ReadBlockHeader(vr.r)
	if err != nil {
		return err // propagates io.EOF unwrapped
	}
	payloadLen := bh.PayloadLen()
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(vr.r, payload); err != nil {
		return errs.E(errs.IO, "vbq: reading block payload", err)
	}
	if bh.CompressedLen != 0 {
		block, err := compressutil.Decompress(make([]byte, 0, bh.UncompressedLen), payload)
		if err != nil {
			return errs.Wrap(err, "vbq: decompressing block")
		}
		vr.block = block
	} else {
		vr.block = payload
	}
	vr.off = 0
	return nil
}

// Next decodes the next record, transparently crossing block
// boundaries, or returns io.EOF once the stream is exhausted.
func (vr *Reader) Next() (*container.Record, error) {
	for vr.block == nil || vr.off >= len(vr.block) {
		if err := vr.fillBlock(); err != nil {
			return nil, err
		}
		if len(vr.block) == 0 {
			vr.block = nil
			continue
		}
	}
	rec, newOff, err := DecodeRecord(vr.block, vr.off, vr.Header)
	if err != nil {
		return nil, err
	}
	vr.off = newOff
	rec.Ordinal = vr.ordinal
	vr.ordinal++
	return rec, nil
}

// BlockReader exposes raw block access: each block's header and
// payload, without decoding its records.
type BlockReader struct {
	r io.Reader
}

// NewBlockReader wraps r, which must already be positioned just past
// a VBQ file header.
func NewBlockReader(r io.Reader) *BlockReader { return &BlockReader{r: r} }

// NextRaw reads the next block's header and compressed-or-stored
// payload without decompressing it.
func (br *BlockReader) NextRaw() (BlockHeader, []byte, error) {
	bh, err := ReadBlockHeader(br.r)
	if err != nil {
		return BlockHeader{}, nil, err
	}
	payload := make([]byte, bh.PayloadLen())
	if _, err := io.ReadFull(br.r, payload); err != nil {
		return BlockHeader{}, nil, errs.E(errs.IO, "vbq: reading block payload", err)
	}
	return bh, payload, nil
}
