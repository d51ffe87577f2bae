package index

import (
	"io"
	"os"

	"github.com/arcinstitute/binseq/container/cbq"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/internal/errs"
)

// BuildVBQ regenerates an Index for a VBQ file by a single linear scan
// over its block headers, without decompressing any payload.
func BuildVBQ(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.E(errs.IO, "index: opening vbq file", err)
	}
	defer f.Close()

	if _, err := vbq.ReadHeader(f); err != nil {
		return nil, err
	}

	var entries []Entry
	var ordinal uint64
	var uncompOffset uint64
	offset := int64(vbq.HeaderSize)
	for {
		bh, err := vbq.ReadBlockHeader(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			FileOffset:      uint64(offset),
			StartingOrdinal: ordinal,
			RecordCount:     bh.RecordCount,
			UncompStart:     uncompOffset,
			UncompEnd:       uncompOffset + bh.UncompressedLen,
		})
		payloadLen := int64(bh.PayloadLen())
		if _, err := f.Seek(payloadLen, io.SeekCurrent); err != nil {
			return nil, errs.E(errs.IO, "index: seeking past block payload", err)
		}
		offset += int64(vbq.BlockHeaderSize) + payloadLen
		ordinal += uint64(bh.RecordCount)
		uncompOffset += bh.UncompressedLen
	}

	id, err := ContentID(path)
	if err != nil {
		return nil, err
	}
	return New(id, entries), nil
}

// BuildCBQ regenerates an Index for a CBQ file by a single linear scan
// over its block preambles and column headers, without decompressing
// any column payload.
func BuildCBQ(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.E(errs.IO, "index: opening cbq file", err)
	}
	defer f.Close()

	if _, err := cbq.ReadHeader(f); err != nil {
		return nil, err
	}

	var entries []Entry
	var ordinal uint64
	var uncompOffset uint64
	offset := int64(cbq.HeaderSize)
	for {
		bs, err := cbq.ScanBlock(f, f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			FileOffset:      uint64(offset),
			StartingOrdinal: ordinal,
			RecordCount:     bs.RecordCount,
			UncompStart:     uncompOffset,
			UncompEnd:       uncompOffset + bs.UncompressedLen,
		})
		offset += bs.OnDiskLen
		ordinal += uint64(bs.RecordCount)
		uncompOffset += bs.UncompressedLen
	}

	id, err := ContentID(path)
	if err != nil {
		return nil, err
	}
	return New(id, entries), nil
}
