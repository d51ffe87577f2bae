package seqcodec

import "github.com/arcinstitute/binseq/internal/errs"

// Resolve applies policy to seq, returning an ASCII base slice with
// every ambiguous byte substituted (or the same bytes, if none were
// ambiguous). It is the policy-application step factored out of
// Encode2Bit/Encode4Bit, for callers that need to decide skip/keep
// once up front and then defer the actual bit-packing to a later
// stage (CBQ's columnar writer packs only after a whole block's
// worth of records is known, so the same record must never be run
// through RandomDraw twice).
func Resolve(b BitSize, seq []byte, policy Policy, rng *PolicyRNG) (out []byte, skipped bool, err error) {
	table := code2
	if b == Bits4 {
		table = code4
	}
	out = make([]byte, len(seq))
	copy(out, seq)
	for i, c := range seq {
		if table[c] != 0xff {
			continue
		}
		switch policy.Kind {
		case IgnoreRecord:
			return nil, true, nil
		case Fail:
			return nil, false, errs.E(errs.PolicyRejected, "seqcodec: ambiguous base rejected by policy")
		case RandomDraw:
			if rng == nil {
				return nil, false, errs.E(errs.ConfigError, "seqcodec: RandomDraw policy requires a PolicyRNG")
			}
			out[i] = rng.Draw()
		case SetTo:
			if table[policy.To] == 0xff {
				return nil, false, errs.E(errs.ConfigError, "seqcodec: SetTo policy base is not representable")
			}
			out[i] = policy.To
		default:
			return nil, false, errs.E(errs.ConfigError, "seqcodec: unknown N-policy")
		}
	}
	return out, false, nil
}
