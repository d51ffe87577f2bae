// Package cbq implements the CBQ container: like VBQ a sequence of
// blocks, but with its own block framing (a preamble carrying the
// block's record and column counts, then one separately framed and
// compressed stream per column) rather than vbq.BlockHeader; each
// block's records are laid out column-major rather than record-major.
// Grouping all
// primary-length words together, then all packed primary bases, then
// all flag words, and so on, lets each column compress against
// same-typed neighbors instead of interleaved record structure, which
// favors columns with low entropy (flags, lengths) at the cost of
// needing every column present before any one record can be
// reconstructed.
//
// The header shape mirrors vbq.Header field-for-field; only the magic
// bytes differ, so the two formats can share conversion tooling
// without re-deriving file-level metadata.
package cbq

import (
	"encoding/binary"
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// HeaderSize is the fixed size, in bytes, of a CBQ file header.
const HeaderSize = 12

const (
	flagPaired      = 1 << 0
	flagQuality     = 1 << 1
	flagHeaders     = 1 << 2
	flagCompression = 1 << 3
)

// Header describes a CBQ file's fixed preamble.
type Header struct {
	Version     byte
	Paired      bool
	Quality     bool
	Headers     bool
	Compression bool
	BitSize     seqcodec.BitSize
	BlockSize   uint32 // target record count per block
}

// Marshal encodes h into a HeaderSize-byte buffer.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], container.MagicCBQ[:])
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
		return Header{}, errs.E(errs.ShortRecord, "cbq: header shorter than HeaderSize")
	}
	var magic container.Magic
	copy(magic[:], buf[0:4])
	if err := container.CheckMagic(magic, container.MagicCBQ); err != nil {
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
		return Header{}, errs.E(errs.IO, "cbq: reading header", err)
	}
	return Unmarshal(buf)
}
