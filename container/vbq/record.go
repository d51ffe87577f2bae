package vbq

import (
	"encoding/binary"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// appendSeq appends one sequence's encoding to buf: its base count
// (4 bytes LE), its packed bases, and (if quality is enabled) its
// quality bytes verbatim, one per base.
func appendSeq(buf []byte, h Header, seq, qual []byte, policy seqcodec.Policy, rng *seqcodec.PolicyRNG) (out []byte, skipped bool, err error) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(seq)))
	buf = append(buf, lenBuf[:]...)

	packed := make([]byte, seqcodec.PackedLen(len(seq), h.BitSize))
	skip, err := seqcodec.Encode(h.BitSize, packed, seq, policy, rng)
	if err != nil {
		return nil, false, err
	}
	if skip {
		return buf, true, nil
	}
	buf = append(buf, packed...)

	if h.Quality {
		if len(qual) != len(seq) {
			return nil, false, errs.E(errs.LengthMismatch, "vbq: quality length does not match sequence length")
		}
		buf = append(buf, qual...)
	}
	return buf, false, nil
}

// appendHeaderBytes appends a 4-byte length prefix and the header
// bytes themselves, if headers are enabled for this file.
func appendHeaderBytes(buf []byte, h Header, header []byte) []byte {
	if !h.Headers {
		return buf
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(header)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, header...)
}

// EncodeRecord appends r's wire encoding to buf under header shape h,
// returning skipped=true (with the buffer unchanged logically, though
// buf's backing array may have grown) if the N-policy dropped r.
func EncodeRecord(buf []byte, h Header, r *container.Record, policy seqcodec.Policy, rng *seqcodec.PolicyRNG) (out []byte, skipped bool, err error) {
	start := len(buf)
	buf, skip, err := appendSeq(buf, h, r.Primary, r.PrimaryQual, policy, rng)
	if err != nil || skip {
		return buf[:start], skip, err
	}
	buf = appendHeaderBytes(buf, h, r.PrimaryHeader)

	if h.Paired {
		buf, skip, err = appendSeq(buf, h, r.Extended, r.ExtendedQual, policy, rng)
		if err != nil || skip {
			return buf[:start], skip, err
		}
		buf = appendHeaderBytes(buf, h, r.ExtendedHeader)
	}

	var flagBuf [4]byte
	binary.LittleEndian.PutUint32(flagBuf[:], r.Flags)
	buf = append(buf, flagBuf[:]...)
	return buf, false, nil
}

// decodeSeq reads one sequence's encoding from buf at off, returning
// the new offset.
func decodeSeq(buf []byte, off int, h Header) (seq, qual []byte, newOff int, err error) {
	if off+4 > len(buf) {
		return nil, nil, 0, errs.E(errs.DecodeError, "vbq: truncated sequence length")
	}
	n := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4

	packedLen := seqcodec.PackedLen(n, h.BitSize)
	if off+packedLen > len(buf) {
		return nil, nil, 0, errs.E(errs.DecodeError, "vbq: truncated packed sequence")
	}
	seq = make([]byte, n)
	if err := seqcodec.Decode(h.BitSize, seq, buf[off:off+packedLen], n); err != nil {
		return nil, nil, 0, err
	}
	off += packedLen

	if h.Quality {
		if off+n > len(buf) {
			return nil, nil, 0, errs.E(errs.DecodeError, "vbq: truncated quality")
		}
		qual = append([]byte(nil), buf[off:off+n]...)
		off += n
	}
	return seq, qual, off, nil
}

func decodeHeaderBytes(buf []byte, off int, h Header) (header []byte, newOff int, err error) {
	if !h.Headers {
		return nil, off, nil
	}
	if off+4 > len(buf) {
		return nil, 0, errs.E(errs.DecodeError, "vbq: truncated header length")
	}
	n := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	if off+n > len(buf) {
		return nil, 0, errs.E(errs.DecodeError, "vbq: truncated header bytes")
	}
	header = append([]byte(nil), buf[off:off+n]...)
	return header, off + n, nil
}

// DecodeRecord reads one record from buf at off and returns the
// offset immediately after it.
func DecodeRecord(buf []byte, off int, h Header) (*container.Record, int, error) {
	rec := &container.Record{}
	var err error
	rec.Primary, rec.PrimaryQual, off, err = decodeSeq(buf, off, h)
	if err != nil {
		return nil, 0, err
	}
	rec.PrimaryHeader, off, err = decodeHeaderBytes(buf, off, h)
	if err != nil {
		return nil, 0, err
	}

	if h.Paired {
		rec.Extended, rec.ExtendedQual, off, err = decodeSeq(buf, off, h)
		if err != nil {
			return nil, 0, err
		}
		rec.ExtendedHeader, off, err = decodeHeaderBytes(buf, off, h)
		if err != nil {
			return nil, 0, err
		}
	}

	if off+4 > len(buf) {
		return nil, 0, errs.E(errs.DecodeError, "vbq: truncated record flags")
	}
	rec.Flags = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	return rec, off, nil
}
