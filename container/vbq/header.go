// Package vbq implements the VBQ container: variable-length records
// grouped into compressed "virtual blocks", with optional per-record
// quality strings and ASCII headers. Unlike BQ, neither sequence
// length nor block size needs to be uniform across a file; random
// access goes through a separate block-index sidecar rather than
// direct arithmetic.
//
// The block framing (a small fixed header naming an uncompressed and
// compressed length, followed by a compressed or stored payload) is
// grounded in the chunked recordio writer's framing style
// (grailbio-base/recordio/internal/chunk.go and
// grailbio-base/recordio/writerv2.go), though the exact header bytes
// and the lack of a trailing CRC are specific to this format: VBQ
// relies on zstd's own frame checksum rather than a second one.
package vbq

import (
	"encoding/binary"
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// HeaderSize is the fixed size, in bytes, of a VBQ file header.
const HeaderSize = 12

// DefaultBlockSize is the uncompressed payload size, in bytes, at or
// above which a virtual block is flushed.
const DefaultBlockSize = 4 << 20

const (
	flagPaired      = 1 << 0
	flagQuality     = 1 << 1
	flagHeaders     = 1 << 2
	flagCompression = 1 << 3
)

// Header describes a VBQ file's fixed preamble.
type Header struct {
	Version     byte
	Paired      bool
	Quality     bool
	Headers     bool
	Compression bool
	BitSize     seqcodec.BitSize
	BlockSize   uint32
}

// Marshal encodes h into a HeaderSize-byte buffer.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], container.MagicVBQ[:])
	buf[4] = h.Version
	var flags byte
	if h.Paired {
		flags |= flagPaired
	}
	if h.Quality {
		flags |= flagQuality
	}
	if h.Headers {
		flags |= flagHeaders
	}
	if h.Compression {
		flags |= flagCompression
	}
	flags |= container.BitSizeFlag(h.BitSize) << 4
	buf[5] = flags
	binary.LittleEndian.PutUint32(buf[8:12], h.BlockSize)
	return buf
}

// Unmarshal parses a HeaderSize-byte buffer into a Header.
func Unmarshal(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errs.E(errs.ShortRecord, "vbq: header shorter than HeaderSize")
	}
	var magic container.Magic
	copy(magic[:], buf[0:4])
	if err := container.CheckMagic(magic, container.MagicVBQ); err != nil {
		return Header{}, err
	}
	if err := container.CheckVersion(buf[4]); err != nil {
		return Header{}, err
	}
	flags := buf[5]
	h := Header{
		Version:     buf[4],
		Paired:      flags&flagPaired != 0,
		Quality:     flags&flagQuality != 0,
		Headers:     flags&flagHeaders != 0,
		Compression: flags&flagCompression != 0,
		BitSize:     container.BitSizeFromFlag(flags >> 4),
		BlockSize:   binary.LittleEndian.Uint32(buf[8:12]),
	}
	return h, nil
}

// ReadHeader reads and parses a header from r.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, errs.E(errs.IO, "vbq: reading header", err)
	}
	return Unmarshal(buf)
}

// Equal reports whether two headers describe compatible files for
// concatenation purposes.
func (h Header) Equal(o Header) bool {
	return h.Version == o.Version && h.Paired == o.Paired && h.Quality == o.Quality &&
		h.Headers == o.Headers && h.BitSize == o.BitSize
}
