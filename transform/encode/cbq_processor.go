package encode

import (
	"github.com/arcinstitute/binseq/compressutil"
	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/cbq"
	"github.com/arcinstitute/binseq/parproc"
	"github.com/arcinstitute/binseq/seqcodec"
)

// CBQProcessor resolves the N-policy for its shard of records locally
// (using its own PolicyRNG), then column-encodes and compresses the
// resolved records into a self-contained block at PrepareBatch time,
// off the shared Writer's lock; OnBatchComplete only has to hand that
// already-built block to the shared *cbq.Writer. Pre-resolving policy
// locally is what keeps RandomDraw's per-worker determinism even
// though bit-packing and column assembly happen per-worker rather
// than inside the shared Writer.
type CBQProcessor struct {
	parproc.BaseProcessor
	header  cbq.Header
	policy  seqcodec.Policy
	rng     *seqcodec.PolicyRNG
	level   compressutil.Level
	shared  *cbq.Writer
	pending []*container.Record
	skipped uint64

	built      []byte
	builtCount uint32
}

// NewCBQProcessor constructs a worker-local CBQProcessor. It reads its
// compression level from shared, so every worker's blocks are built
// the same way the shared Writer would have built them itself.
func NewCBQProcessor(h cbq.Header, policy seqcodec.Policy, seed uint64, tid int, shared *cbq.Writer) *CBQProcessor {
	var rng *seqcodec.PolicyRNG
	if policy.Kind == seqcodec.RandomDraw {
		rng = seqcodec.NewPolicyRNG(seed, uint64(tid))
	}
	return &CBQProcessor{header: h, policy: policy, rng: rng, level: shared.Level(), shared: shared}
}

func (p *CBQProcessor) resolve(r *container.Record) (*container.Record, bool, error) {
	primary, skip, err := seqcodec.Resolve(p.header.BitSize, r.Primary, p.policy, p.rng)
	if err != nil || skip {
		return nil, skip, err
	}
	out := &container.Record{
		Primary: primary, PrimaryQual: r.PrimaryQual, PrimaryHeader: r.PrimaryHeader,
		Flags: r.Flags,
	}
	if p.header.Paired {
		extended, skip, err := seqcodec.Resolve(p.header.BitSize, r.Extended, p.policy, p.rng)
		if err != nil || skip {
			return nil, skip, err
		}
		out.Extended = extended
		out.ExtendedQual = r.ExtendedQual
		out.ExtendedHeader = r.ExtendedHeader
	}
	return out, false, nil
}

func (p *CBQProcessor) OnRecord(r *container.Record) error {
	resolved, skip, err := p.resolve(r)
	if err != nil {
		return err
	}
	if skip {
		p.skipped++
		return nil
	}
	p.pending = append(p.pending, resolved)
	return nil
}

func (p *CBQProcessor) OnPair(r1, r2 *container.Record) error {
	return p.OnRecord(&container.Record{
		Primary: r1.Primary, Extended: r2.Primary,
		PrimaryQual: r1.PrimaryQual, ExtendedQual: r2.PrimaryQual,
		PrimaryHeader: r1.PrimaryHeader, ExtendedHeader: r2.PrimaryHeader,
		Flags: r1.Flags,
	})
}

// PrepareBatch column-encodes and compresses this worker's pending,
// already-resolved records into a self-contained block, off the
// shared Writer's lock. It is a no-op if the worker has nothing
// pending this batch.
func (p *CBQProcessor) PrepareBatch() error {
	if len(p.pending) == 0 {
		return nil
	}
	built, n, err := cbq.BuildBlock(p.header, p.level, p.pending)
	if err != nil {
		return err
	}
	p.built = built
	p.builtCount = n
	return nil
}

// OnBatchComplete appends the block PrepareBatch already built, doing
// no CPU work of its own while the shared Writer's lock is held.
func (p *CBQProcessor) OnBatchComplete() error {
	if len(p.pending) == 0 {
		return nil
	}
	if err := p.shared.AppendBuiltBlock(p.built, p.builtCount); err != nil {
		return err
	}
	p.pending = p.pending[:0]
	p.built = nil
	p.builtCount = 0
	return nil
}

// Skipped returns the number of records this worker has dropped under
// IgnoreRecord policy so far.
func (p *CBQProcessor) Skipped() uint64 { return p.skipped }
