// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package traverse_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/arcinstitute/binseq/traverse"
	"github.com/stretchr/testify/require"
)

func TestDoVisitsEveryIndex(t *testing.T) {
	const n = 1000
	var seen [n]int32
	err := traverse.Parallel(n).Do(func(i int) error {
		atomic.AddInt32(&seen[i], 1)
		return nil
	})
	require.NoError(t, err)
	for i, v := range seen {
		require.Equalf(t, int32(1), v, "index %d visited %d times", i, v)
	}
}

func TestDoPropagatesFirstError(t *testing.T) {
	wantErr := fmt.Errorf("boom")
	err := traverse.Each(16).Do(func(i int) error {
		if i == 3 {
			return wantErr
		}
		return nil
	})
	require.Error(t, err)
	require.Equal(t, wantErr, err)
}

func TestDoRangeShardsContiguously(t *testing.T) {
	const n = 97
	var covered [n]bool
	err := traverse.Parallel(n).Sharded(8).DoRange(func(start, end int) error {
		for i := start; i < end; i++ {
			covered[i] = true
		}
		return nil
	})
	require.NoError(t, err)
	for i, ok := range covered {
		require.Truef(t, ok, "index %d not covered", i)
	}
}

func TestDoRecoversPanic(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
	}()
	_ = traverse.Each(4).Do(func(i int) error {
		if i == 1 {
			panic("kaboom")
		}
		return nil
	})
}
