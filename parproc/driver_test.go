package parproc_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/parproc"
	"github.com/stretchr/testify/require"
)

var errFake = errors.New("fake processing error")

type countingProcessor struct {
	parproc.BaseProcessor
	seen      int
	completes int
}

func (p *countingProcessor) OnRecord(r *container.Record) error {
	p.seen++
	return nil
}
func (p *countingProcessor) OnPair(r1, r2 *container.Record) error {
	p.seen++
	return nil
}
func (p *countingProcessor) OnBatchComplete() error {
	p.completes++
	return nil
}

func TestProcessBatchVisitsEveryRecord(t *testing.T) {
	var mu sync.Mutex
	var procs []*countingProcessor
	factory := func(tid int) parproc.Processor {
		p := &countingProcessor{}
		mu.Lock()
		procs = append(procs, p)
		mu.Unlock()
		return p
	}
	d := parproc.NewDriver(4, factory)

	batch := make([]*container.Record, 17)
	for i := range batch {
		batch[i] = &container.Record{Ordinal: uint64(i)}
	}
	require.NoError(t, d.ProcessBatch(batch))

	total := 0
	for _, p := range procs {
		total += p.seen
		require.Equal(t, 1, p.completes)
	}
	require.Equal(t, len(batch), total)
}

type erroringProcessor struct {
	parproc.BaseProcessor
}

func (p *erroringProcessor) OnRecord(r *container.Record) error {
	if r.Ordinal == 2 {
		return errFake
	}
	return nil
}
func (p *erroringProcessor) OnPair(r1, r2 *container.Record) error { return nil }
func (p *erroringProcessor) OnBatchComplete() error                { return nil }

func TestProcessBatchPropagatesError(t *testing.T) {
	d := parproc.NewDriver(2, func(tid int) parproc.Processor { return &erroringProcessor{} })
	batch := make([]*container.Record, 4)
	for i := range batch {
		batch[i] = &container.Record{Ordinal: uint64(i)}
	}
	err := d.ProcessBatch(batch)
	require.Error(t, err)
}
