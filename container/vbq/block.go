package vbq

import (
	"encoding/binary"
	"io"

	"github.com/arcinstitute/binseq/internal/errs"
)

// BlockHeaderSize is the fixed size, in bytes, of a virtual block's
// header.
const BlockHeaderSize = 24

// BlockHeader precedes every block's payload.
type BlockHeader struct {
	UncompressedLen uint64
	CompressedLen   uint64 // 0 means the payload is stored, not compressed
	RecordCount     uint32
}

// Marshal encodes bh into a BlockHeaderSize-byte buffer.
func (bh BlockHeader) Marshal() []byte {
	buf := make([]byte, BlockHeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], bh.UncompressedLen)
	binary.LittleEndian.PutUint64(buf[8:16], bh.CompressedLen)
	binary.LittleEndian.PutUint32(buf[16:20], bh.RecordCount)
	return buf
}

// UnmarshalBlockHeader parses a BlockHeaderSize-byte buffer.
func UnmarshalBlockHeader(buf []byte) (BlockHeader, error) {
	if len(buf) < BlockHeaderSize {
		return BlockHeader{}, errs.E(errs.ShortRecord, "vbq: block header shorter than BlockHeaderSize")
	}
	return BlockHeader{
		UncompressedLen: binary.LittleEndian.Uint64(buf[0:8]),
		CompressedLen:   binary.LittleEndian.Uint64(buf[8:16]),
		RecordCount:     binary.LittleEndian.Uint32(buf[16:20]),
	}, nil
}

// ReadBlockHeader reads and parses a block header from r. It returns
// io.EOF (unwrapped) if r is exhausted exactly at a block boundary.
func ReadBlockHeader(r io.Reader) (BlockHeader, error) {
	buf := make([]byte, BlockHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			return BlockHeader{}, io.EOF
		}
		return BlockHeader{}, errs.E(errs.IO, "vbq: reading block header", err)
	}
	return UnmarshalBlockHeader(buf)
}

// PayloadLen returns the on-disk length of this block's payload.
func (bh BlockHeader) PayloadLen() uint64 {
	if bh.CompressedLen == 0 {
		return bh.UncompressedLen
	}
	return bh.CompressedLen
}
