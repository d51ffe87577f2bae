// Package parproc runs a batch of records through N worker goroutines
// in parallel, each with its own thread-local state, then serializes
// their output under a single writer lock acquired only at batch
// boundaries. Every batch runs in three phases: OnRecord/OnPair across
// workers (fully parallel), then PrepareBatch across workers (also
// parallel -- this is where a worker does any CPU-heavy work needed
// to turn its buffered records into an already-built, ready-to-append
// result), then OnBatchComplete, once per worker in worker-index
// order, while the driver's single lock is held. Pushing the heavy
// work into PrepareBatch keeps the locked phase down to cheap I/O,
// following recordio's writerv2 discipline of preparing a block
// fully before ever taking the lock that serializes it into the
// file.
package parproc

import "github.com/arcinstitute/binseq/container"

// Processor is the per-worker contract the driver calls into. A
// Processor is created once per worker (see Factory) and reused
// across every batch that worker handles, so it may hold thread-local
// scratch buffers, a seeded PolicyRNG, or similar state that must not
// be shared across goroutines.
type Processor interface {
	// OnRecord handles a single (unpaired) record.
	OnRecord(r *container.Record) error
	// OnPair handles a mated pair. Only called when the processor is
	// running over a paired source.
	OnPair(r1, r2 *container.Record) error
	// PrepareBatch runs once per worker after every record in its
	// shard of the current batch has been handled, but before
	// OnBatchComplete and without holding the driver's lock. A
	// Processor whose OnBatchComplete needs to do CPU-heavy work
	// (compressing a buffer, bit-packing a column) should do that work
	// here instead, against its own worker-local state, and leave
	// OnBatchComplete to do nothing but append the already-built
	// result to shared output state. A Processor with nothing to
	// prepare can embed BaseProcessor's no-op default.
	PrepareBatch() error

	// OnBatchComplete is called once per worker after PrepareBatch has
	// run across all workers, while the driver holds the shared writer
	// lock in worker-index order. This is the only point at which it
	// is safe for a Processor to touch shared output state (a
	// container.Writer, an index builder, a running count) without
	// its own synchronization; it should do as little work here as
	// possible, since every worker waits on this one lock in turn.
	OnBatchComplete() error

	// SetTid/GetTid let a Processor identify its own worker index,
	// e.g. to seed a per-worker PolicyRNG deterministically.
	SetTid(tid int)
	GetTid() int
}

// Factory builds one Processor per worker. tid ranges over
// [0, numWorkers).
type Factory func(tid int) Processor

// BaseProcessor implements SetTid/GetTid so concrete Processors can
// embed it instead of repeating the boilerplate.
type BaseProcessor struct {
	tid int
}

func (b *BaseProcessor) SetTid(tid int) { b.tid = tid }
func (b *BaseProcessor) GetTid() int    { return b.tid }

// PrepareBatch is a no-op default for Processors that do all their
// work in OnRecord/OnBatchComplete and have nothing to prepare
// off-lock.
func (b *BaseProcessor) PrepareBatch() error { return nil }
