package dispatch

import (
	"sync/atomic"

	"github.com/vk/opdispatch/internal/opschema"
)

// lookupTable is the name-to-handle index for the hot call path. Readers
// load the currently published snapshot and index into it without taking
// any lock; a snapshot, once published, is never mutated again. Writers
// (already serialized by the dispatcher mutex) build a fresh copy, apply
// their change and publish it with a single atomic store, so readers drain
// from the old snapshot undisturbed and observe either the pre- or
// post-write table, never a partial one.
type lookupTable struct {
	snapshot atomic.Pointer[map[opschema.Name]OperatorHandle]
}

func newLookupTable() *lookupTable {
	t := &lookupTable{}
	empty := make(map[opschema.Name]OperatorHandle)
	t.snapshot.Store(&empty)
	return t
}

// find is wait-free with respect to writers.
func (t *lookupTable) find(name opschema.Name) (OperatorHandle, bool) {
	h, ok := (*t.snapshot.Load())[name]
	return h, ok
}

// insert publishes a snapshot containing name. Caller holds the dispatcher
// mutex.
func (t *lookupTable) insert(name opschema.Name, h OperatorHandle) {
	old := *t.snapshot.Load()
	next := make(map[opschema.Name]OperatorHandle, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[name] = h
	t.snapshot.Store(&next)
}

// erase publishes a snapshot without name. Caller holds the dispatcher
// mutex.
func (t *lookupTable) erase(name opschema.Name) {
	old := *t.snapshot.Load()
	next := make(map[opschema.Name]OperatorHandle, len(old))
	for k, v := range old {
		if k != name {
			next[k] = v
		}
	}
	t.snapshot.Store(&next)
}
