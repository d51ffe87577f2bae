// Package sample draws a reproducible Bernoulli subset of records from
// a container, keyed by each record's ordinal rather than by draw
// sequence, so the same seed and rate select the same reads
// regardless of how many workers process the batch or how it is
// sharded.
package sample

import (
	"io"
	"math/rand/v2"

	"github.com/arcinstitute/binseq/container"
)

// Sampler decides whether to keep a record by ordinal.
type Sampler struct {
	rate float64
	seed uint64
}

// New constructs a Sampler that keeps each record independently with
// probability rate, in [0,1]. Decisions are a pure function of
// (seed, ordinal): sampling the same file twice with the same seed
// and rate yields exactly the same subset, and is unaffected by the
// number of parallel workers used to drive Keep.
func New(rate float64, seed uint64) *Sampler {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &Sampler{rate: rate, seed: seed}
}

// Keep reports whether the record at this ordinal is selected.
func (s *Sampler) Keep(ordinal uint64) bool {
	if s.rate >= 1 {
		return true
	}
	if s.rate <= 0 {
		return false
	}
	r := rand.New(rand.NewPCG(s.seed, ordinal))
	return r.Float64() < s.rate
}

// Source is the common streaming-read surface bq.Reader, vbq.Reader,
// and cbq.Reader all satisfy.
type Source interface {
	Next() (*container.Record, error)
}

// Sink receives kept records in ordinal order.
type Sink interface {
	Append(r *container.Record) (skipped bool, err error)
}

// Stats summarizes one sampling run.
type Stats struct {
	Seen uint64
	Kept uint64
}

// Run reads every record from src, keeps a seeded Bernoulli subset,
// and appends the kept records to dst in order. Like decode, sampling
// runs single-threaded: the decision is already O(1) per record and a
// parallel writer-lock discipline would add complexity without
// measurable benefit.
func Run(src Source, dst Sink, s *Sampler) (Stats, error) {
	var stats Stats
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.Seen++
		if !s.Keep(rec.Ordinal) {
			continue
		}
		if _, err := dst.Append(rec); err != nil {
			return stats, err
		}
		stats.Kept++
	}
	return stats, nil
}
