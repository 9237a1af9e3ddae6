package dispatch

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/opdispatch/internal/dispatchkey"
	"github.com/vk/opdispatch/internal/kernel"
	"github.com/vk/opdispatch/internal/opschema"
)

// Dispatcher is the operator dispatch registry. One mutex serializes every
// structural write; Find and Call never take it.
type Dispatcher struct {
	mu        sync.Mutex
	operators list.List // of *operatorEntry; iterator-stable storage
	lookup    *lookupTable
	fallbacks kernel.FallbackTable
	listeners listenerList

	// keysWithoutFallthrough holds every key whose dispatch requires real
	// work. Installing a fallthrough fallback removes its key; removing the
	// fallback, or installing a non-fallthrough one, keeps it present. Read
	// on the hot path, so it is published as an atomic word.
	keysWithoutFallthrough atomic.Uint64
}

// New returns an empty dispatcher. Production code shares the Default
// instance; tests construct their own so they never observe each other's
// registrations.
func New() *Dispatcher {
	d := &Dispatcher{lookup: newLookupTable()}
	d.keysWithoutFallthrough.Store(uint64(dispatchkey.Full()))
	return d
}

var (
	defaultOnce       sync.Once
	defaultDispatcher *Dispatcher
)

// Default returns the process-wide dispatcher, created on first use.
func Default() *Dispatcher {
	defaultOnce.Do(func() {
		defaultDispatcher = New()
	})
	return defaultDispatcher
}

// Find returns the handle for name, if any operator by that name is live.
// It is wait-free with respect to concurrent registrations: it reads the
// most recently published lookup snapshot and never blocks on a writer.
func (d *Dispatcher) Find(name opschema.Name) (OperatorHandle, bool) {
	return d.lookup.find(name)
}

// KeysWithoutFallthrough returns the set of keys whose dispatch cannot be
// short-circuited. The call path intersects its candidate keys with this
// set before resolving.
func (d *Dispatcher) KeysWithoutFallthrough() dispatchkey.Set {
	return dispatchkey.Set(d.keysWithoutFallthrough.Load())
}

// findOrCreate resolves name to its entry, allocating a schema-less one if
// absent. Caller holds d.mu.
func (d *Dispatcher) findOrCreate(name opschema.Name) OperatorHandle {
	if h, ok := d.lookup.find(name); ok {
		return h
	}
	elem := d.operators.PushBack(&operatorEntry{name: name})
	h := OperatorHandle{elem: elem}
	d.lookup.insert(name, h)
	return h
}

// findOrCreateWithSchema is findOrCreate plus schema validation and merge.
// Caller holds d.mu.
func (d *Dispatcher) findOrCreateWithSchema(s opschema.Schema) (OperatorHandle, error) {
	h := d.findOrCreate(s.Name)
	if err := h.entry().mergeSchema(s); err != nil {
		// A freshly allocated entry cannot fail the merge, so a failure
		// here never leaves a zero-refcount entry behind.
		return OperatorHandle{}, err
	}
	return h, nil
}

// RegisterSchema registers a schema ("def") for an operator, creating the
// entry if needed. The first schema registration for a name makes the
// operator count as defined and notifies listeners, after the operator is
// already findable. The returned Registration reverses all of it.
func (d *Dispatcher) RegisterSchema(s opschema.Schema) (*Registration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h, err := d.findOrCreateWithSchema(s)
	if err != nil {
		return nil, err
	}

	e := h.entry()
	e.refcount++
	e.weakRefcount++
	if e.refcount == 1 {
		d.listeners.notifyRegistered(h)
	}

	name := s.Name
	return newRegistration(func() {
		d.deregisterSchema(h, name)
	}), nil
}

func (d *Dispatcher) deregisterSchema(h OperatorHandle, name opschema.Name) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e := h.entry()
	if e.name != name {
		panic(fmt.Sprintf("dispatch: schema deregistration for %s hit entry %s", name, e.name))
	}
	if e.refcount <= 0 || e.weakRefcount <= 0 {
		panic(fmt.Sprintf("dispatch: refcount underflow deregistering schema for %s", name))
	}
	e.refcount--
	e.weakRefcount--
	if e.refcount == 0 {
		// Listeners run before removal: the operator is still findable and
		// the handle still dereferences inside the callback.
		d.listeners.notifyDeregistered(h)
	}
	if e.weakRefcount == 0 {
		d.eraseLocked(h, name)
	}
}

// RegisterKernel installs a kernel for name at key, or at the catch-all
// slot when key is nil. The entry is created schema-less if absent. Kernel
// registrations keep the operator alive (weak refcount) without making it
// count as defined.
func (d *Dispatcher) RegisterKernel(name opschema.Name, key *dispatchkey.Key, k *kernel.Kernel) (*Registration, error) {
	if k == nil {
		return nil, fmt.Errorf("registering kernel for operator %s: kernel must not be nil", name)
	}
	if key != nil && !key.Valid() {
		return nil, fmt.Errorf("registering kernel for operator %s: invalid dispatch key %v", name, *key)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	h := d.findOrCreate(name)
	e := h.entry()
	tok := e.kernels.Install(key, k)
	e.weakRefcount++

	return newRegistration(func() {
		d.deregisterKernel(h, name, key, tok)
	}), nil
}

func (d *Dispatcher) deregisterKernel(h OperatorHandle, name opschema.Name, key *dispatchkey.Key, tok kernel.Token) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e := h.entry()
	if e.name != name {
		panic(fmt.Sprintf("dispatch: kernel deregistration for %s hit entry %s", name, e.name))
	}
	e.kernels.Remove(key, tok)
	if e.weakRefcount <= 0 {
		panic(fmt.Sprintf("dispatch: refcount underflow deregistering kernel for %s", name))
	}
	e.weakRefcount--
	if e.weakRefcount == 0 {
		d.eraseLocked(h, name)
	}
}

// eraseLocked finalizes an entry whose weak refcount reached zero: teardown
// assertions first, then removal from the store and the lookup table under
// the same publish discipline as any other write. Caller holds d.mu.
func (d *Dispatcher) eraseLocked(h OperatorHandle, name opschema.Name) {
	h.entry().prepareForDeregistration()
	d.operators.Remove(h.elem)
	d.lookup.erase(name)
}

// RegisterFallback installs a process-wide fallback kernel for key, used
// whenever an operator has no kernel of its own there. A key holds at most
// one fallback; a second registration is a validation error and leaves the
// installed one intact.
func (d *Dispatcher) RegisterFallback(key dispatchkey.Key, k *kernel.Kernel) (*Registration, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("registering fallback: invalid dispatch key %v", key)
	}
	if k == nil {
		return nil, fmt.Errorf("registering fallback for key %s: kernel must not be nil", key)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if res := d.fallbacks.Set(key, k); res != kernel.SetResultAdded {
		return nil, fmt.Errorf("%w: a backend fallback kernel for key %s is already registered", ErrDuplicateFallback, key)
	}
	if k.IsFallthrough() {
		d.setKeysWithoutFallthrough(d.KeysWithoutFallthrough().Remove(key))
	}

	return newRegistration(func() {
		d.deregisterFallback(key)
	}), nil
}

func (d *Dispatcher) deregisterFallback(key dispatchkey.Key) {
	d.mu.Lock()
	defer d.mu.Unlock()

	res := d.fallbacks.Remove(key)
	d.setKeysWithoutFallthrough(d.KeysWithoutFallthrough().Add(key))
	if res != kernel.RemoveResultRemoved {
		panic(fmt.Sprintf("dispatch: no backend fallback kernel registered for key %s", key))
	}
}

// Fallback returns the process-wide fallback kernel for key, or nil.
func (d *Dispatcher) Fallback(key dispatchkey.Key) *kernel.Kernel {
	return d.fallbacks.Lookup(key)
}

func (d *Dispatcher) setKeysWithoutFallthrough(s dispatchkey.Set) {
	d.keysWithoutFallthrough.Store(uint64(s))
}

// AddListener attaches l and immediately replays OnOperatorRegistered for
// every defined operator in store order, so a late-attaching observer sees
// a consistent retrospective view before any live notification reaches it.
// Kernel-only entries were never announced and are not replayed.
func (d *Dispatcher) AddListener(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for elem := d.operators.Front(); elem != nil; elem = elem.Next() {
		h := OperatorHandle{elem: elem}
		if h.entry().refcount > 0 {
			l.OnOperatorRegistered(h)
		}
	}
	d.listeners.add(l)
}

// OperatorCount returns the number of live operator entries.
func (d *Dispatcher) OperatorCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.operators.Len()
}
