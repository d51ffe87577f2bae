package parproc

import (
	"sync"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/traverse"
)

// shardBounds splits [0,n) into numWorkers contiguous ranges, as even
// as possible, with any remainder going to the first ranges.
func shardBounds(n, numWorkers int) []int {
	base := n / numWorkers
	rem := n % numWorkers
	bounds := make([]int, numWorkers+1)
	for i := 0; i < numWorkers; i++ {
		size := base
		if i < rem {
			size++
		}
		bounds[i+1] = bounds[i] + size
	}
	return bounds
}

// Driver owns one Processor per worker and runs successive batches of
// records through them. A batch is split into contiguous, roughly
// equal ranges (one per worker), so ordinal order within a worker's
// range is preserved; OnBatchComplete is then called once per worker,
// strictly in worker-index order and while holding a single internal
// lock, so downstream containers see a deterministic, reproducible
// write order independent of goroutine scheduling.
type Driver struct {
	procs []Processor
	mu    sync.Mutex
}

// NewDriver builds numWorkers Processors via factory and returns a
// Driver ready to process batches.
func NewDriver(numWorkers int, factory Factory) *Driver {
	if numWorkers < 1 {
		numWorkers = 1
	}
	procs := make([]Processor, numWorkers)
	for i := range procs {
		procs[i] = factory(i)
		procs[i].SetTid(i)
	}
	return &Driver{procs: procs}
}

// NumWorkers returns the number of Processors the Driver drives.
func (d *Driver) NumWorkers() int { return len(d.procs) }

// Skipper is implemented by a Processor that tracks records it has
// dropped under the N-policy, so Skipped can report an aggregate
// across every worker without the driver itself knowing anything
// about seqcodec policies.
type Skipper interface {
	Skipped() uint64
}

// Skipped sums Skipped() across every Processor that implements
// Skipper; a Processor that doesn't track skips contributes zero.
func (d *Driver) Skipped() uint64 {
	var total uint64
	for _, p := range d.procs {
		if s, ok := p.(Skipper); ok {
			total += s.Skipped()
		}
	}
	return total
}

// prepareBatch runs PrepareBatch across every Processor in parallel,
// unlocked. It covers all of d.procs rather than just the workers
// that received records this batch, mirroring completeBatch below, so
// a Processor can rely on PrepareBatch/OnBatchComplete always running
// as a pair regardless of how a given batch happened to shard.
func (d *Driver) prepareBatch() error {
	return traverse.Each(len(d.procs)).Do(func(tid int) error {
		if err := d.procs[tid].PrepareBatch(); err != nil {
			return errs.Wrap(err, "parproc: PrepareBatch")
		}
		return nil
	})
}

func (d *Driver) completeBatch() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.procs {
		if err := p.OnBatchComplete(); err != nil {
			return errs.Wrap(err, "parproc: OnBatchComplete")
		}
	}
	return nil
}

// ProcessBatch shards batch across workers, calling OnRecord for each
// record, then runs OnBatchComplete across all workers in order.
func (d *Driver) ProcessBatch(batch []*container.Record) error {
	n := len(batch)
	if n == 0 {
		return nil
	}
	numWorkers := len(d.procs)
	if numWorkers > n {
		numWorkers = n
	}
	return d.runSharded(n, numWorkers, func(tid, start, end int) error {
		proc := d.procs[tid]
		for i := start; i < end; i++ {
			if err := proc.OnRecord(batch[i]); err != nil {
				return errs.Wrap(err, "parproc: OnRecord")
			}
		}
		return nil
	})
}

// ProcessPairBatch is ProcessBatch's paired-read counterpart: each
// element is a mated (R1, R2) pair, routed to OnPair.
func (d *Driver) ProcessPairBatch(batch [][2]*container.Record) error {
	n := len(batch)
	if n == 0 {
		return nil
	}
	numWorkers := len(d.procs)
	if numWorkers > n {
		numWorkers = n
	}
	return d.runSharded(n, numWorkers, func(tid, start, end int) error {
		proc := d.procs[tid]
		for i := start; i < end; i++ {
			if err := proc.OnPair(batch[i][0], batch[i][1]); err != nil {
				return errs.Wrap(err, "parproc: OnPair")
			}
		}
		return nil
	})
}

// runSharded partitions [0,n) into numWorkers contiguous ranges, one
// per worker's own Processor, and drives them with traverse.Each
// (each worker is its own goroutine; numWorkers is already bounded by
// the caller, so there is no need for traverse.Parallel's extra CPU
// cap). Once every range has completed with no error, PrepareBatch
// runs across all workers (still parallel, still unlocked), then
// OnBatchComplete runs across all workers in order, under the
// driver's lock.
func (d *Driver) runSharded(n, numWorkers int, work func(tid, start, end int) error) error {
	bounds := shardBounds(n, numWorkers)
	err := traverse.Each(numWorkers).Do(func(tid int) error {
		start, end := bounds[tid], bounds[tid+1]
		if start == end {
			return nil
		}
		return work(tid, start, end)
	})
	if err != nil {
		return err
	}
	if err := d.prepareBatch(); err != nil {
		return err
	}
	return d.completeBatch()
}
