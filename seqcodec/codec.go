// Package seqcodec implements the 2-bit and 4-bit nucleotide packing
// used by every container format, and the N-policy that reconciles
// ambiguous bases with the fixed {A,C,G,T} alphabet that 2-bit mode
// requires.
//
// The packing order is little-endian within a byte: the first base
// occupies the low bits. This mirrors the byte-substitution idiom of
// a NibbleLookupTable (see grailbio-base/simd), except the table here
// also has to detect invalid input and run the N-policy, so it is
// expressed as a plain 256-entry lookup rather than a SIMD shuffle.
package seqcodec

import (
	"github.com/arcinstitute/binseq/internal/errs"
)

// BitSize is the number of bits used to encode one base. Only 2 and 4
// are valid.
type BitSize int

const (
	Bits2 BitSize = 2
	Bits4 BitSize = 4
)

// code2 maps an ASCII base to its 2-bit code, or 0xff if not in {A,C,G,T}.
var code2 [256]byte

// code4 maps an ASCII base to its 4-bit code, or 0xff if not in {A,C,G,T,N}.
var code4 [256]byte

var base2 = [4]byte{'A', 'C', 'G', 'T'}
var base4 = map[byte]byte{
	0b0001: 'A',
	0b0010: 'C',
	0b0100: 'G',
	0b1000: 'T',
	0b1111: 'N',
}

func init() {
	for i := range code2 {
		code2[i] = 0xff
		code4[i] = 0xff
	}
	code2['A'], code2['a'] = 0, 0
	code2['C'], code2['c'] = 1, 1
	code2['G'], code2['g'] = 2, 2
	code2['T'], code2['t'] = 3, 3

	code4['A'], code4['a'] = 0b0001, 0b0001
	code4['C'], code4['c'] = 0b0010, 0b0010
	code4['G'], code4['g'] = 0b0100, 0b0100
	code4['T'], code4['t'] = 0b1000, 0b1000
	code4['N'], code4['n'] = 0b1111, 0b1111
}

// PackedLen returns the number of bytes needed to pack n bases at the
// given bit size: ceil(n*b/8).
func PackedLen(n int, b BitSize) int {
	bits := n * int(b)
	return (bits + 7) / 8
}

// Encode2Bit packs seq (ASCII bases) into dst using 2 bits per base,
// applying policy to any byte outside {A,C,G,T}. dst must have length
// PackedLen(len(seq), Bits2) and is zeroed by the caller (or will be
// overwritten completely).
//
// Encode2Bit never mutates seq; ambiguous bases are resolved into a
// scratch value and written directly to dst.
//
// It returns skipped=true (with a nil error) if policy is IgnoreRecord
// and at least one ambiguous base was found: the caller must not
// write this record's packed bytes.
func Encode2Bit(dst, seq []byte, policy Policy, rng *PolicyRNG) (skipped bool, err error) {
	if len(dst) != PackedLen(len(seq), Bits2) {
		return false, errs.E(errs.LengthMismatch, "seqcodec: dst has wrong length for 2-bit packing")
	}
	for i := range dst {
		dst[i] = 0
	}
	for i, b := range seq {
		c := code2[b]
		if c == 0xff {
			switch policy.Kind {
			case IgnoreRecord:
				return true, nil
			case Fail:
				return false, errs.E(errs.PolicyRejected, "seqcodec: non-ACGT base in 2-bit mode")
			case RandomDraw:
				if rng == nil {
					return false, errs.E(errs.ConfigError, "seqcodec: RandomDraw policy requires a PolicyRNG")
				}
				c = code2[rng.Draw()]
			case SetTo:
				c = code2[policy.To]
				if c == 0xff {
					return false, errs.E(errs.ConfigError, "seqcodec: SetTo policy base is not one of A,C,G,T")
				}
			default:
				return false, errs.E(errs.ConfigError, "seqcodec: unknown N-policy")
			}
		}
		byteIdx := i >> 2
		shift := uint((i & 3) * 2)
		dst[byteIdx] |= c << shift
	}
	return false, nil
}

// Decode2Bit unpacks n bases from packed (2 bits each) into dst, which
// must have length n.
func Decode2Bit(dst, packed []byte, n int) error {
	if len(dst) != n {
		return errs.E(errs.LengthMismatch, "seqcodec: dst has wrong length for 2-bit decode")
	}
	if len(packed) < PackedLen(n, Bits2) {
		return errs.E(errs.DecodeError, "seqcodec: packed payload shorter than declared length")
	}
	for i := 0; i < n; i++ {
		byteIdx := i >> 2
		shift := uint((i & 3) * 2)
		c := (packed[byteIdx] >> shift) & 0x3
		dst[i] = base2[c]
	}
	return nil
}

// Encode4Bit packs seq into dst using 4 bits per base. N is
// representable directly (code 0b1111) and bypasses policy entirely;
// any other byte outside {A,C,G,T,N} still runs policy, the same as
// 2-bit mode, since it cannot be represented even in 4-bit mode.
func Encode4Bit(dst, seq []byte, policy Policy, rng *PolicyRNG) (skipped bool, err error) {
	if len(dst) != PackedLen(len(seq), Bits4) {
		return false, errs.E(errs.LengthMismatch, "seqcodec: dst has wrong length for 4-bit packing")
	}
	for i := range dst {
		dst[i] = 0
	}
	for i, b := range seq {
		c := code4[b]
		if c == 0xff {
			switch policy.Kind {
			case IgnoreRecord:
				return true, nil
			case Fail:
				return false, errs.E(errs.PolicyRejected, "seqcodec: undefined base in 4-bit mode")
			case RandomDraw:
				if rng == nil {
					return false, errs.E(errs.ConfigError, "seqcodec: RandomDraw policy requires a PolicyRNG")
				}
				c = code4[rng.Draw()]
			case SetTo:
				c = code4[policy.To]
				if c == 0xff {
					return false, errs.E(errs.ConfigError, "seqcodec: SetTo policy base is not one of A,C,G,T")
				}
			default:
				return false, errs.E(errs.ConfigError, "seqcodec: unknown N-policy")
			}
		}
		byteIdx := i >> 1
		if i&1 == 0 {
			dst[byteIdx] |= c
		} else {
			dst[byteIdx] |= c << 4
		}
	}
	return false, nil
}

// Decode4Bit unpacks n bases from packed (4 bits each) into dst.
func Decode4Bit(dst, packed []byte, n int) error {
	if len(dst) != n {
		return errs.E(errs.LengthMismatch, "seqcodec: dst has wrong length for 4-bit decode")
	}
	if len(packed) < PackedLen(n, Bits4) {
		return errs.E(errs.DecodeError, "seqcodec: packed payload shorter than declared length")
	}
	for i := 0; i < n; i++ {
		byteIdx := i >> 1
		var c byte
		if i&1 == 0 {
			c = packed[byteIdx] & 0xf
		} else {
			c = (packed[byteIdx] >> 4) & 0xf
		}
		b, ok := base4[c]
		if !ok {
			return errs.E(errs.DecodeError, "seqcodec: undefined 4-bit code in packed payload")
		}
		dst[i] = b
	}
	return nil
}

// Encode packs seq at the given bit size, dispatching to Encode2Bit or
// Encode4Bit.
func Encode(b BitSize, dst, seq []byte, policy Policy, rng *PolicyRNG) (skipped bool, err error) {
	switch b {
	case Bits2:
		return Encode2Bit(dst, seq, policy, rng)
	case Bits4:
		return Encode4Bit(dst, seq, policy, rng)
	default:
		return false, errs.E(errs.ConfigError, "seqcodec: bit size must be 2 or 4")
	}
}

// Decode unpacks n bases at the given bit size into dst.
func Decode(b BitSize, dst, packed []byte, n int) error {
	switch b {
	case Bits2:
		return Decode2Bit(dst, packed, n)
	case Bits4:
		return Decode4Bit(dst, packed, n)
	default:
		return errs.E(errs.ConfigError, "seqcodec: bit size must be 2 or 4")
	}
}
