package encode

import (
	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/container/cbq"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/fastx"
	"github.com/arcinstitute/binseq/parproc"
	"github.com/arcinstitute/binseq/seqcodec"
)

// BatchSize is the default number of records pulled from the source
// and dispatched to workers per round.
const BatchSize = 4096

// Stats summarizes one encode run.
type Stats struct {
	Written uint64
	Skipped uint64
}

func toRecord(r *fastx.Record) *container.Record {
	return &container.Record{Primary: r.Seq, PrimaryQual: r.Qual, PrimaryHeader: []byte(r.ID)}
}

// RunBQ encodes single-ended records from src into a BQ file via w,
// using numWorkers parallel packers.
func RunBQ(src fastx.Reader, w *bq.Writer, h bq.Header, policy seqcodec.Policy, seed uint64, numWorkers int) (Stats, error) {
	factory := func(tid int) parproc.Processor { return NewBQProcessor(h, policy, seed, tid, w) }
	d := parproc.NewDriver(numWorkers, factory)

	for {
		fxBatch, err := fastx.Batch(src, BatchSize)
		if err != nil {
			return Stats{}, err
		}
		if len(fxBatch) == 0 {
			break
		}
		batch := make([]*container.Record, len(fxBatch))
		for i, fx := range fxBatch {
			batch[i] = toRecord(fx)
		}
		if err := d.ProcessBatch(batch); err != nil {
			return Stats{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Stats{}, err
	}
	return Stats{Written: w.Count(), Skipped: d.Skipped()}, nil
}

// RunBQPaired is RunBQ's mated-pair counterpart.
func RunBQPaired(src *fastx.PairReader, w *bq.Writer, h bq.Header, policy seqcodec.Policy, seed uint64, numWorkers int) (Stats, error) {
	factory := func(tid int) parproc.Processor { return NewBQProcessor(h, policy, seed, tid, w) }
	d := parproc.NewDriver(numWorkers, factory)

	for {
		fxBatch, err := fastx.BatchPairs(src, BatchSize)
		if err != nil {
			return Stats{}, err
		}
		if len(fxBatch) == 0 {
			break
		}
		batch := make([][2]*container.Record, len(fxBatch))
		for i, pair := range fxBatch {
			batch[i] = [2]*container.Record{toRecord(pair[0]), toRecord(pair[1])}
		}
		if err := d.ProcessPairBatch(batch); err != nil {
			return Stats{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Stats{}, err
	}
	return Stats{Written: w.Count(), Skipped: d.Skipped()}, nil
}

// RunVBQ encodes single-ended records from src into a VBQ file via w.
func RunVBQ(src fastx.Reader, w *vbq.Writer, h vbq.Header, policy seqcodec.Policy, seed uint64, numWorkers int) (Stats, error) {
	factory := func(tid int) parproc.Processor { return NewVBQProcessor(h, policy, seed, tid, w) }
	d := parproc.NewDriver(numWorkers, factory)

	for {
		fxBatch, err := fastx.Batch(src, BatchSize)
		if err != nil {
			return Stats{}, err
		}
		if len(fxBatch) == 0 {
			break
		}
		batch := make([]*container.Record, len(fxBatch))
		for i, fx := range fxBatch {
			batch[i] = toRecord(fx)
		}
		if err := d.ProcessBatch(batch); err != nil {
			return Stats{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Stats{}, err
	}
	return Stats{Written: w.Count(), Skipped: d.Skipped()}, nil
}

// RunCBQ encodes single-ended records from src into a CBQ file via w.
// The shared writer must have been constructed with seqcodec.FailPolicy,
// since CBQProcessor already resolves the N-policy before handing
// records to it.
func RunCBQ(src fastx.Reader, w *cbq.Writer, h cbq.Header, policy seqcodec.Policy, seed uint64, numWorkers int) (Stats, error) {
	factory := func(tid int) parproc.Processor { return NewCBQProcessor(h, policy, seed, tid, w) }
	d := parproc.NewDriver(numWorkers, factory)

	for {
		fxBatch, err := fastx.Batch(src, BatchSize)
		if err != nil {
			return Stats{}, err
		}
		if len(fxBatch) == 0 {
			break
		}
		batch := make([]*container.Record, len(fxBatch))
		for i, fx := range fxBatch {
			batch[i] = toRecord(fx)
		}
		if err := d.ProcessBatch(batch); err != nil {
			return Stats{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Stats{}, err
	}
	return Stats{Written: w.Count(), Skipped: d.Skipped()}, nil
}
