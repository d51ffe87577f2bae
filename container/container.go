// Package container defines the data model and on-disk preamble
// shared by the three binseq container formats (BQ, VBQ, CBQ): the
// logical Record, the Mode enum, and the magic/version bytes every
// format's header starts with.
//
// BQ stores fixed-length records with O(1) random access; VBQ stores
// variable-length records grouped into compressed virtual blocks with
// optional quality and headers; CBQ also groups records into blocks,
// with its own block and per-column framing rather than VBQ's block
// header, and lays each block out column-major. The three share no code
// path below the header, but share this one shape:
// {header, record iterator, append(record), finalize, optional random
// access}.
package container

import (
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// Record is a sequencing read: a primary sequence, and optionally an
// extended (mate) sequence, quality strings, ASCII headers, a flags
// word, and the ordinal assigned to it when it was written.
//
// Quality and header presence are file-level properties (either every
// record in a file carries them, or none do); Record nonetheless
// carries the fields so one type serves reading and writing across
// all three formats.
type Record struct {
	Primary  []byte
	Extended []byte // nil unless the file is paired

	PrimaryQual  []byte
	ExtendedQual []byte

	PrimaryHeader  []byte
	ExtendedHeader []byte

	Flags   uint32
	Ordinal uint64
}

// Paired reports whether r carries an extended (mate) sequence.
func (r *Record) Paired() bool { return r.Extended != nil }

// Mode identifies which of the three container formats a file uses.
type Mode int

const (
	ModeBQ Mode = iota
	ModeVBQ
	ModeCBQ
)

func (m Mode) String() string {
	switch m {
	case ModeBQ:
		return "bq"
	case ModeVBQ:
		return "vbq"
	case ModeCBQ:
		return "cbq"
	default:
		return "unknown"
	}
}

// Extension returns the canonical file extension for m, e.g. ".bq".
func (m Mode) Extension() string {
	return "." + m.String()
}

// Magic bytes identify which format and, within VBQ/CBQ, which block
// kind a reader is looking at. Each is 4 bytes so it can be compared
// as a fixed-size array.
type Magic [4]byte

var (
	MagicBQ  = Magic{'B', 'S', 'Q', '1'}
	MagicVBQ = Magic{'V', 'B', 'Q', '1'}
	MagicCBQ = Magic{'C', 'B', 'Q', '1'}
)

// FormatVersion is the single pinned version for this implementation.
// There is no schema evolution for existing files: the version is
// fixed per file at the time it was written, and a reader that sees a
// different version fails with errs.FormatVersion rather than
// attempting partial compatibility.
const FormatVersion = 1

// CheckMagic verifies got equals want, returning a BadMagic error
// otherwise.
func CheckMagic(got, want Magic) error {
	if got != want {
		return errs.E(errs.BadMagic, "container: unexpected magic bytes")
	}
	return nil
}

// CheckVersion verifies got equals the pinned FormatVersion.
func CheckVersion(got byte) error {
	if got != FormatVersion {
		return errs.E(errs.FormatVersion, "container: unsupported format version")
	}
	return nil
}

// BitSizeFlag packs a seqcodec.BitSize into the 1-bit encoding used in
// on-disk flag bytes (0 => 2-bit, 1 => 4-bit).
func BitSizeFlag(b seqcodec.BitSize) byte {
	if b == seqcodec.Bits4 {
		return 1
	}
	return 0
}

// BitSizeFromFlag is the inverse of BitSizeFlag.
func BitSizeFromFlag(f byte) seqcodec.BitSize {
	if f&1 != 0 {
		return seqcodec.Bits4
	}
	return seqcodec.Bits2
}
