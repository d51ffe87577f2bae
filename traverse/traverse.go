// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package traverse provides concurrent and parallel index traversal.
// It is the work-sharing primitive the parallel batch processor
// (package parproc) builds its batch dispatch on.
package traverse

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/arcinstitute/binseq/internal/errs"
)

type panicErr struct {
	v     interface{}
	stack []byte
}

func (p panicErr) Error() string { return fmt.Sprint(p.v) }

// Traverse describes a traversal of a given length. Construct with
// Each or Parallel.
type Traverse struct {
	n, maxConcurrent, nshards int
}

// Each creates a traversal of length n suitable for concurrent (I/O
// bound) work: every index gets its own goroutine.
func Each(n int) Traverse {
	return Traverse{n, n, 0}
}

// Parallel creates a traversal of length n suitable for CPU-bound
// work, limited to runtime.NumCPU() concurrent goroutines.
func Parallel(n int) Traverse {
	return Each(n).Limit(runtime.NumCPU())
}

// Limit caps the traversal's concurrency.
func (t Traverse) Limit(maxConcurrent int) Traverse {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}
	t.maxConcurrent = maxConcurrent
	return t
}

// Sharded groups the n indices into nshards contiguous shards, each
// processed by DoRange as one unit of work. Useful when n is large
// and each index's work is cheap enough that per-index goroutine
// scheduling would dominate.
func (t Traverse) Sharded(nshards int) Traverse {
	t.nshards = nshards
	return t
}

// Do invokes op(i) for every 0 <= i < t.n, spread across at most
// t.maxConcurrent goroutines. Do returns the first error returned by
// any op, and guarantees no further op runs once an error occurs (an
// op already in flight is allowed to finish its own index; no new
// index is claimed). A panic inside op is recovered in the worker
// goroutine and re-raised as a panic in Do's caller, carrying the
// original stack trace; it is never silently swallowed.
func (t Traverse) Do(op func(i int) error) error {
	return t.DoRange(func(start, end int) error {
		for i := start; i < end; i++ {
			if err := op(i); err != nil {
				return err
			}
		}
		return nil
	})
}

// DoRange is like Do, but op receives contiguous index ranges
// [start, end) rather than single indices: one shard per call when
// Sharded is set, otherwise one index per call.
func (t Traverse) DoRange(op func(start, end int) error) error {
	if t.n == 0 {
		return nil
	}

	numShards := t.n
	shardSize := 1
	if t.nshards > 0 {
		numShards = min(t.nshards, t.n)
		shardSize = (t.n + t.nshards - 1) / t.nshards
	}
	maxConcurrent := t.maxConcurrent
	if numShards < maxConcurrent {
		maxConcurrent = numShards
	}

	var once errs.Once
	apply := func(i int) (err error) {
		defer func() {
			if perr := recover(); perr != nil {
				err = panicErr{perr, debug.Stack()}
			}
		}()
		start := i * shardSize
		return op(start, min(start+shardSize, t.n))
	}

	var wg sync.WaitGroup
	wg.Add(maxConcurrent)
	var next int64 = -1
	for i := 0; i < maxConcurrent; i++ {
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1))
				if i >= numShards || once.Err() != nil {
					return
				}
				if err := apply(i); err != nil {
					once.Set(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if err := once.Err(); err != nil {
		if pe, ok := err.(panicErr); ok {
			panic(fmt.Sprintf("traverse child: %s\n%s", pe.v, string(pe.stack)))
		}
		return err
	}
	return nil
}

func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}
