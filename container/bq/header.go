// Package bq implements the BQ container: fixed-length records packed
// tightly after a small fixed header, with O(1) random access by
// ordinal. Every record in a BQ file has the same primary length S
// and (if paired) the same extended length X, both recorded in the
// header.
//
// Layout follows recordio's header framing
// (grailbio-base/recordio/header.go) for the general shape of "fixed
// preamble describing the body", but the exact bytes use a pinned
// wire format rather than recordio's generic key/value header, since
// BQ has no per-file metadata beyond S, X, and the bit/paired flags.
package bq

import (
	"encoding/binary"
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// HeaderSize is the fixed size, in bytes, of a BQ file header.
const HeaderSize = 16

// Header describes a BQ file's fixed preamble.
type Header struct {
	Version byte
	Paired  bool
	BitSize seqcodec.BitSize
	S       uint32 // primary sequence length
	X       uint32 // extended sequence length; 0 if not Paired
}

// Stride returns the fixed byte size of one record: the flag byte
// plus packed primary (plus packed extended, if paired).
func (h Header) Stride() int {
	n := 1 + seqcodec.PackedLen(int(h.S), h.BitSize)
	if h.Paired {
		n += seqcodec.PackedLen(int(h.X), h.BitSize)
	}
	return n
}

// Marshal encodes h into a HeaderSize-byte buffer.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], container.MagicBQ[:])
	buf[4] = h.Version
	var flags byte
	if h.Paired {
		flags |= 0x1
	}
	flags |= container.BitSizeFlag(h.BitSize) << 1
	buf[5] = flags
	// buf[6:8] reserved, left zero.
	binary.LittleEndian.PutUint32(buf[8:12], h.S)
	binary.LittleEndian.PutUint32(buf[12:16], h.X)
	return buf
}

// Unmarshal parses a HeaderSize-byte buffer into a Header.
func Unmarshal(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errs.E(errs.ShortRecord, "bq: header shorter than HeaderSize")
	}
	var magic container.Magic
	copy(magic[:], buf[0:4])
	if err := container.CheckMagic(magic, container.MagicBQ); err != nil {
		return Header{}, err
	}
	if err := container.CheckVersion(buf[4]); err != nil {
		return Header{}, err
	}
	flags := buf[5]
	h := Header{
		Version: buf[4],
		Paired:  flags&0x1 != 0,
		BitSize: container.BitSizeFromFlag(flags >> 1),
		S:       binary.LittleEndian.Uint32(buf[8:12]),
		X:       binary.LittleEndian.Uint32(buf[12:16]),
	}
	return h, nil
}

// ReadHeader reads and parses a header from r.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, errs.E(errs.IO, "bq: reading header", err)
	}
	return Unmarshal(buf)
}

// Equal reports whether two headers describe compatible files for
// concatenation purposes: same version, paired-ness, bit size, S, X.
func (h Header) Equal(o Header) bool {
	return h.Version == o.Version && h.Paired == o.Paired && h.BitSize == o.BitSize && h.S == o.S && h.X == o.X
}
