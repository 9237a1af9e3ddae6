package kernel

import (
	"fmt"
	"sync/atomic"

	"github.com/vk/opdispatch/internal/dispatchkey"
)

// SetResult reports the outcome of installing a fallback kernel.
type SetResult int

const (
	SetResultAdded SetResult = iota
	SetResultAlreadyPresent
)

// RemoveResult reports the outcome of removing a fallback kernel.
type RemoveResult int

const (
	RemoveResultRemoved RemoveResult = iota
	RemoveResultNotPresent
)

// FallbackTable maps a dispatch key to at most one process-wide fallback
// kernel, independent of any operator. The dispatcher serializes Set and
// Remove under its write lock; Lookup runs on the lock-free call path, so
// each slot is published atomically.
type FallbackTable struct {
	kernels [dispatchkey.NumKeys + 1]atomic.Pointer[Kernel]
}

// Set installs k as the fallback for key. A key holds at most one fallback;
// an occupied slot is left untouched and reported.
func (t *FallbackTable) Set(key dispatchkey.Key, k *Kernel) SetResult {
	if !key.Valid() {
		panic(fmt.Sprintf("kernel: invalid dispatch key %v", key))
	}
	if !t.kernels[int(key)].CompareAndSwap(nil, k) {
		return SetResultAlreadyPresent
	}
	return SetResultAdded
}

// Remove clears the fallback for key, reporting whether one was installed.
func (t *FallbackTable) Remove(key dispatchkey.Key) RemoveResult {
	if !key.Valid() {
		panic(fmt.Sprintf("kernel: invalid dispatch key %v", key))
	}
	if t.kernels[int(key)].Swap(nil) == nil {
		return RemoveResultNotPresent
	}
	return RemoveResultRemoved
}

// Lookup returns the fallback for key, or nil. Wait-free.
func (t *FallbackTable) Lookup(key dispatchkey.Key) *Kernel {
	if !key.Valid() {
		return nil
	}
	return t.kernels[int(key)].Load()
}
