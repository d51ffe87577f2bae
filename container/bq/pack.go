package bq

import (
	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// PackRecord packs r into a Stride()-length buffer under header shape
// h, without touching any Writer state. It is the pure core Writer
// builds on, and what parallel encoders (see transform/encode) call
// directly so that per-worker packing needs no synchronization: only
// h is shared (read-only), while policy and rng are expected to be
// per-worker values.
func PackRecord(h Header, r *container.Record, policy seqcodec.Policy, rng *seqcodec.PolicyRNG) (raw []byte, skipped bool, err error) {
	if uint32(len(r.Primary)) != h.S {
		return nil, false, errs.E(errs.LengthMismatch, "bq: record primary length does not match file S")
	}
	if h.Paired && uint32(len(r.Extended)) != h.X {
		return nil, false, errs.E(errs.LengthMismatch, "bq: record extended length does not match file X")
	}

	stride := h.Stride()
	buf := make([]byte, stride)
	buf[0] = byte(r.Flags)

	primaryPacked := buf[1 : 1+seqcodec.PackedLen(int(h.S), h.BitSize)]
	skip, err := seqcodec.Encode(h.BitSize, primaryPacked, r.Primary, policy, rng)
	if err != nil {
		return nil, false, errs.Wrap(err, "bq: encoding primary sequence")
	}
	if skip {
		return nil, true, nil
	}

	if h.Paired {
		extOff := 1 + len(primaryPacked)
		extendedPacked := buf[extOff:stride]
		skip, err = seqcodec.Encode(h.BitSize, extendedPacked, r.Extended, policy, rng)
		if err != nil {
			return nil, false, errs.Wrap(err, "bq: encoding extended sequence")
		}
		if skip {
			return nil, true, nil
		}
	}
	return buf, false, nil
}
