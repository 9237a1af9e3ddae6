package dispatch

import (
	"container/list"

	"github.com/vk/opdispatch/internal/dispatchkey"
	"github.com/vk/opdispatch/internal/kernel"
	"github.com/vk/opdispatch/internal/opschema"
)

// OperatorHandle is a stable, copyable reference to one operator's slot in
// the store. Handles do not own the entry: one is valid for as long as the
// entry's weak refcount stays above zero, which callers guarantee by
// holding a Registration while they keep a handle they intend to
// dereference. Using a handle after its entry was erased is undefined.
//
// The handle wraps the entry's list element rather than a bare pointer so
// that insertion of unrelated operators never invalidates it; only erasing
// this specific entry does.
type OperatorHandle struct {
	elem *list.Element
}

func (h OperatorHandle) entry() *operatorEntry {
	return h.elem.Value.(*operatorEntry)
}

// Name returns the operator's identity.
func (h OperatorHandle) Name() opschema.Name {
	return h.entry().name
}

// HasSchema reports whether a schema registration (or a schema-bearing
// merge) has attached a signature to this operator.
func (h OperatorHandle) HasSchema() bool {
	return h.entry().schema != nil
}

// Schema returns a copy of the operator's schema. It panics when no schema
// is attached; check HasSchema first for kernel-only operators.
func (h OperatorHandle) Schema() opschema.Schema {
	e := h.entry()
	if e.schema == nil {
		panic("dispatch: operator " + e.name.String() + " has no schema")
	}
	return *e.schema
}

// Lookup returns the operator's winning kernel for key, or nil. Undefined
// consults only the catch-all slot.
func (h OperatorHandle) Lookup(key dispatchkey.Key) *kernel.Kernel {
	return h.entry().kernels.Lookup(key)
}

// Keys returns the dispatch keys that currently hold a kernel for this
// operator, used for diagnostics and dispatch error messages.
func (h OperatorHandle) Keys() dispatchkey.Set {
	return h.entry().kernels.Keys()
}

// HasCatchAll reports whether an unkeyed kernel is installed.
func (h OperatorHandle) HasCatchAll() bool {
	return h.entry().kernels.HasCatchAll()
}
