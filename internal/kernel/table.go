package kernel

import (
	"container/list"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/vk/opdispatch/internal/dispatchkey"
)

// Table is the per-operator kernel table: one slot per dispatch key plus an
// unkeyed catch-all slot. Each slot is a stack of kernels where the most
// recently installed one wins, so an override layer can shadow an existing
// kernel and restore it on removal.
//
// Install and Remove are serialized by the dispatcher's write lock. Lookup
// runs on the lock-free call path: each slot republishes its winning kernel
// through an atomic pointer on every mutation, so readers see either the
// pre- or post-mutation winner and never walk the stack itself.
type Table struct {
	slots    [dispatchkey.NumKeys + 1]slot
	catchAll slot
}

type slot struct {
	stack  list.List
	winner atomic.Pointer[Kernel]
}

func (s *slot) install(k *Kernel) *list.Element {
	elem := s.stack.PushFront(k)
	s.winner.Store(k)
	return elem
}

func (s *slot) remove(elem *list.Element) {
	s.stack.Remove(elem)
	if front := s.stack.Front(); front != nil {
		s.winner.Store(front.Value.(*Kernel))
	} else {
		s.winner.Store(nil)
	}
}

// Token identifies one installed kernel so exactly that installation can be
// removed later, regardless of what was stacked above or below it.
type Token struct {
	slot *slot
	elem *list.Element
}

func (t *Table) slotFor(key *dispatchkey.Key) *slot {
	if key == nil {
		return &t.catchAll
	}
	if !key.Valid() {
		panic(fmt.Sprintf("kernel: invalid dispatch key %v", *key))
	}
	return &t.slots[int(*key)]
}

// Install pushes k onto the slot for key, or onto the catch-all slot when
// key is nil. The returned token is required for removal.
func (t *Table) Install(key *dispatchkey.Key, k *Kernel) Token {
	s := t.slotFor(key)
	return Token{slot: s, elem: s.install(k)}
}

// Remove takes out the installation identified by tok. The key must match
// the one used at install time.
func (t *Table) Remove(key *dispatchkey.Key, tok Token) {
	if tok.slot != t.slotFor(key) {
		panic("kernel: removal key does not match installation key")
	}
	tok.slot.remove(tok.elem)
}

// Lookup returns the winning kernel for key: the newest keyed kernel if the
// slot is populated, else the newest catch-all kernel, else nil. Undefined
// resolves through the catch-all slot only. Wait-free.
func (t *Table) Lookup(key dispatchkey.Key) *Kernel {
	if key.Valid() {
		if k := t.slots[int(key)].winner.Load(); k != nil {
			return k
		}
	}
	return t.catchAll.winner.Load()
}

// Keys returns the set of keys that currently hold at least one kernel.
// Wait-free; used by diagnostics and dispatch error messages.
func (t *Table) Keys() dispatchkey.Set {
	var s dispatchkey.Set
	for _, k := range dispatchkey.All() {
		if t.slots[int(k)].winner.Load() != nil {
			s = s.Add(k)
		}
	}
	return s
}

// HasCatchAll reports whether an unkeyed kernel is installed.
func (t *Table) HasCatchAll() bool {
	return t.catchAll.winner.Load() != nil
}

// TeardownCheck asserts that every slot has been emptied. It is invoked
// when the owning operator entry is finalized; leftover kernels mean a
// registration was never reversed, which is a programming error that must
// surface loudly rather than leak.
func (t *Table) TeardownCheck() error {
	var leftover []string
	for _, k := range dispatchkey.All() {
		if n := t.slots[int(k)].stack.Len(); n > 0 {
			leftover = append(leftover, fmt.Sprintf("%s (%d)", k, n))
		}
	}
	if n := t.catchAll.stack.Len(); n > 0 {
		leftover = append(leftover, fmt.Sprintf("catch-all (%d)", n))
	}
	if len(leftover) > 0 {
		return fmt.Errorf("kernel table torn down with kernels still installed: %s", strings.Join(leftover, ", "))
	}
	return nil
}
