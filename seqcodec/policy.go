package seqcodec

import "math/rand/v2"

// PolicyKind selects how the codec reconciles a non-ACGT base in 2-bit
// mode, where only four symbols are representable.
type PolicyKind int

const (
	// IgnoreRecord aborts packing the current record; the caller
	// counts it as skipped and moves on to the next record.
	IgnoreRecord PolicyKind = iota
	// Fail surfaces a terminal PolicyRejected error.
	Fail
	// RandomDraw substitutes a uniformly random base from {A,C,G,T},
	// drawn from a deterministic per-worker stream.
	RandomDraw
	// SetTo substitutes a single fixed base for every ambiguous byte.
	SetTo
)

// Policy governs what the 2-bit encoder does when it encounters a
// byte outside {A,C,G,T}. It is a property of the encoder, not of the
// file: it is never persisted to a container.
type Policy struct {
	Kind PolicyKind
	// To is the substitution base for SetTo; must be one of A,C,G,T.
	To byte
}

// IgnorePolicy returns the IgnoreRecord policy.
func IgnorePolicy() Policy { return Policy{Kind: IgnoreRecord} }

// FailPolicy returns the Fail policy.
func FailPolicy() Policy { return Policy{Kind: Fail} }

// SetToPolicy returns a SetTo policy substituting base to, which must
// be one of 'A', 'C', 'G', 'T'.
func SetToPolicy(to byte) Policy { return Policy{Kind: SetTo, To: to} }

// RandomDrawPolicy returns a RandomDraw policy.
func RandomDrawPolicy() Policy { return Policy{Kind: RandomDraw} }

// PolicyRNG is a per-worker deterministic source used by RandomDraw.
// The parallel processor seeds one PolicyRNG per worker from a shared
// seed plus a worker-unique salt, so that output is reproducible for
// a given (seed, thread-count, thread assignment) but independent
// across workers.
type PolicyRNG struct {
	r *rand.Rand
}

// NewPolicyRNG seeds a PolicyRNG from seed and a worker-unique salt.
func NewPolicyRNG(seed uint64, salt uint64) *PolicyRNG {
	return &PolicyRNG{r: rand.New(rand.NewPCG(seed, salt))}
}

var randomBases = [4]byte{'A', 'C', 'G', 'T'}

// Draw returns a uniformly random base from {A,C,G,T}.
func (p *PolicyRNG) Draw() byte {
	return randomBases[p.r.IntN(4)]
}
