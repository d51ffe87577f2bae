package encode

import (
	"github.com/arcinstitute/binseq/compressutil"
	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/parproc"
	"github.com/arcinstitute/binseq/seqcodec"
)

// VBQProcessor encodes records against a shared vbq.Header, buffering
// the encoded bytes locally. At PrepareBatch time -- unlocked, so
// compression runs fully in parallel across workers -- it compresses
// its buffer into a self-contained block; OnBatchComplete then only
// has to hand that already-built block to the shared *vbq.Writer, so
// the writer's lock is never held across a compression call.
type VBQProcessor struct {
	parproc.BaseProcessor
	header  vbq.Header
	policy  seqcodec.Policy
	rng     *seqcodec.PolicyRNG
	level   compressutil.Level
	shared  *vbq.Writer
	buf     []byte
	count   uint32
	skipped uint64

	builtHeader  vbq.BlockHeader
	builtPayload []byte
}

// NewVBQProcessor constructs a worker-local VBQProcessor. It reads its
// compression level from shared, so every worker's blocks are built
// the same way the shared Writer would have built them itself.
func NewVBQProcessor(h vbq.Header, policy seqcodec.Policy, seed uint64, tid int, shared *vbq.Writer) *VBQProcessor {
	var rng *seqcodec.PolicyRNG
	if policy.Kind == seqcodec.RandomDraw {
		rng = seqcodec.NewPolicyRNG(seed, uint64(tid))
	}
	return &VBQProcessor{header: h, policy: policy, rng: rng, level: shared.Level(), shared: shared}
}

func (p *VBQProcessor) OnRecord(r *container.Record) error {
	out, skip, err := vbq.EncodeRecord(p.buf, p.header, r, p.policy, p.rng)
	if err != nil {
		return err
	}
	if skip {
		p.skipped++
		return nil
	}
	p.buf = out
	p.count++
	return nil
}

func (p *VBQProcessor) OnPair(r1, r2 *container.Record) error {
	return p.OnRecord(&container.Record{
		Primary: r1.Primary, Extended: r2.Primary,
		PrimaryQual: r1.PrimaryQual, ExtendedQual: r2.PrimaryQual,
		PrimaryHeader: r1.PrimaryHeader, ExtendedHeader: r2.PrimaryHeader,
		Flags: r1.Flags,
	})
}

// PrepareBatch compresses this worker's buffered bytes into a
// self-contained block, off the shared Writer's lock. It is a no-op
// if the worker encoded nothing this batch.
func (p *VBQProcessor) PrepareBatch() error {
	if p.count == 0 {
		return nil
	}
	bh, payload, err := vbq.BuildBlock(p.header, p.level, p.buf, p.count)
	if err != nil {
		return err
	}
	p.builtHeader = bh
	p.builtPayload = payload
	return nil
}

// OnBatchComplete appends the block PrepareBatch already built, doing
// no CPU work of its own while the shared Writer's lock is held.
func (p *VBQProcessor) OnBatchComplete() error {
	if p.count == 0 {
		return nil
	}
	if err := p.shared.AppendBlock(p.builtHeader, p.builtPayload); err != nil {
		return err
	}
	p.buf = p.buf[:0]
	p.count = 0
	p.builtHeader = vbq.BlockHeader{}
	p.builtPayload = nil
	return nil
}

// Skipped returns the number of records this worker has dropped under
// IgnoreRecord policy so far.
func (p *VBQProcessor) Skipped() uint64 { return p.skipped }
