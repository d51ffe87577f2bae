// Package encode drives fastx-sourced records through the parallel
// batch processor (package parproc) into one of the three container
// formats. Each worker packs/encodes its shard of a batch using only
// its own PolicyRNG, buffering the results locally; at OnBatchComplete
// time -- which parproc.Driver guarantees runs once per worker, in
// worker order, under a single lock -- each worker's buffered output
// is appended to the single shared Writer, so the Writer itself never
// needs its own locking.
package encode

import (
	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/parproc"
	"github.com/arcinstitute/binseq/seqcodec"
)

// BQProcessor packs records against a shared bq.Header and appends
// its shard's packed bytes to a shared *bq.Writer at batch boundaries.
type BQProcessor struct {
	parproc.BaseProcessor
	header  bq.Header
	policy  seqcodec.Policy
	rng     *seqcodec.PolicyRNG
	shared  *bq.Writer
	pending [][]byte
	skipped uint64
}

// NewBQProcessor constructs a worker-local BQProcessor. seed and tid
// together make RandomDraw reproducible per worker; rng is nil (and
// unused) unless policy is RandomDraw.
func NewBQProcessor(h bq.Header, policy seqcodec.Policy, seed uint64, tid int, shared *bq.Writer) *BQProcessor {
	var rng *seqcodec.PolicyRNG
	if policy.Kind == seqcodec.RandomDraw {
		rng = seqcodec.NewPolicyRNG(seed, uint64(tid))
	}
	return &BQProcessor{header: h, policy: policy, rng: rng, shared: shared}
}

func (p *BQProcessor) OnRecord(r *container.Record) error {
	raw, skip, err := bq.PackRecord(p.header, r, p.policy, p.rng)
	if err != nil {
		return err
	}
	if skip {
		p.skipped++
		return nil
	}
	p.pending = append(p.pending, raw)
	return nil
}

// OnPair merges a mated pair into one paired record before packing:
// BQ, VBQ, and CBQ all store a mate pair as a single record whose
// Extended field holds the second mate's sequence.
func (p *BQProcessor) OnPair(r1, r2 *container.Record) error {
	return p.OnRecord(&container.Record{
		Primary: r1.Primary, Extended: r2.Primary, Flags: r1.Flags,
	})
}

func (p *BQProcessor) OnBatchComplete() error {
	for _, raw := range p.pending {
		if err := p.shared.AppendPacked(raw); err != nil {
			return err
		}
	}
	p.pending = p.pending[:0]
	return nil
}

// Skipped returns the number of records this worker has dropped under
// IgnoreRecord policy so far.
func (p *BQProcessor) Skipped() uint64 { return p.skipped }
