// Package dispatch implements the operator dispatch registry: a shared
// authority mapping operator names to backend kernels, with wait-free name
// lookup on the call path and mutex-serialized registration.
//
// The concurrency split is deliberate. Lookups happen on every dispatched
// call, so Find reads an immutable snapshot published through an atomic
// pointer and never blocks on a writer. Registrations are rare
// (load/init-time or dynamic extension), so every structural mutation runs
// under one coarse mutex covering the store, refcounts, kernel tables and
// the fallback table; writers copy the lookup snapshot, mutate the copy and
// publish it, so a reader observes either the pre- or post-write table,
// never a torn one.
//
// Each registration returns a single-use Registration whose Deregister
// reverses exactly that mutation. An operator entry stays alive while any
// registration references it (weak refcount) and counts as defined while a
// schema registration does (strong refcount); the entry is erased from the
// store and the lookup table the moment its weak count returns to zero.
package dispatch
