// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package errs

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// Once captures at most one error, safely across goroutines. A zero
// Once is ready to use. The parallel batch processor's driver uses one
// Once per run to capture the first error raised by any worker.
type Once struct {
	// Ignored lists errors dropped by Set, e.g. io.EOF.
	Ignored []error

	mu  sync.Mutex
	err unsafe.Pointer // *error
}

// Err returns the first non-nil error passed to Set, or nil.
func (o *Once) Err() error {
	p := atomic.LoadPointer(&o.err)
	if p == nil {
		return nil
	}
	return *(*error)(p)
}

// Set records err if it is the first non-nil, non-ignored error seen.
func (o *Once) Set(err error) {
	if err == nil {
		return
	}
	for _, ignored := range o.Ignored {
		if err == ignored {
			return
		}
	}
	o.mu.Lock()
	if o.err == nil {
		atomic.StorePointer(&o.err, unsafe.Pointer(&err))
	}
	o.mu.Unlock()
}
