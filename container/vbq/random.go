package vbq

import (
	"io"
	"os"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/index"
	"github.com/arcinstitute/binseq/compressutil"
	"github.com/arcinstitute/binseq/internal/errs"
)

// RandomReader provides ordinal-addressed access to a VBQ file
// backed by a block-index sidecar: it seeks straight to the block
// containing the requested ordinal, decompresses that one block, and
// decodes forward within it. Cost is O(block size), not O(file size).
type RandomReader struct {
	f      *os.File
	Header Header
	idx    *index.Index

	cachedBlockOffset uint64
	cachedBlock       []byte
}

// OpenRandom opens path and its index sidecar for random access.
// Callers that have already regenerated the index (e.g. because the
// sidecar was missing or stale) should use OpenRandomWithIndex
// instead.
func OpenRandom(path string) (*RandomReader, error) {
	idx, err := index.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenRandomWithIndex(path, idx)
}

// OpenRandomWithIndex opens path for random access using a
// caller-supplied index, skipping the sidecar content-identity check.
func OpenRandomWithIndex(path string, idx *index.Index) (*RandomReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.E(errs.IO, "vbq: opening file", err)
	}
	h, err := ReadHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &RandomReader{f: f, Header: h, idx: idx}, nil
}

// Len returns the total number of records, per the index.
func (rr *RandomReader) Len() uint64 { return rr.idx.NumRecords() }

func (rr *RandomReader) loadBlock(e index.Entry) ([]byte, error) {
	if rr.cachedBlock != nil && rr.cachedBlockOffset == e.FileOffset {
		return rr.cachedBlock, nil
	}
	if _, err := rr.f.Seek(int64(e.FileOffset), io.SeekStart); err != nil {
		return nil, errs.E(errs.IO, "vbq: seeking to block", err)
	}
	bh, err := ReadBlockHeader(rr.f)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, bh.PayloadLen())
	if _, err := io.ReadFull(rr.f, payload); err != nil {
		return nil, errs.E(errs.IO, "vbq: reading block payload", err)
	}
	var block []byte
	if bh.CompressedLen != 0 {
		block, err = compressutil.Decompress(make([]byte, 0, bh.UncompressedLen), payload)
		if err != nil {
			return nil, errs.Wrap(err, "vbq: decompressing block")
		}
	} else {
		block = payload
	}
	rr.cachedBlock = block
	rr.cachedBlockOffset = e.FileOffset
	return block, nil
}

// At decodes the record at ordinal i.
func (rr *RandomReader) At(i uint64) (*container.Record, error) {
	e, ok := rr.idx.Lookup(i)
	if !ok {
		return nil, errs.E(errs.IO, "vbq: ordinal out of range")
	}
	block, err := rr.loadBlock(e)
	if err != nil {
		return nil, err
	}
	off := 0
	var rec *container.Record
	for ord := e.StartingOrdinal; ord <= i; ord++ {
		rec, off, err = DecodeRecord(block, off, rr.Header)
		if err != nil {
			return nil, err
		}
	}
	rec.Ordinal = i
	return rec, nil
}

// Close releases the underlying file.
func (rr *RandomReader) Close() error {
	return rr.f.Close()
}
