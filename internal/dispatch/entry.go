package dispatch

import (
	"fmt"

	"github.com/vk/opdispatch/internal/kernel"
	"github.com/vk/opdispatch/internal/opschema"
)

// operatorEntry is the mutable record for one operator name. All fields are
// guarded by the dispatcher mutex.
//
// refcount counts schema ("def") registrations; weakRefcount counts every
// registration, schema or kernel-only, so refcount <= weakRefcount always.
// The entry lives exactly as long as weakRefcount > 0.
type operatorEntry struct {
	name         opschema.Name
	schema       *opschema.Schema
	kernels      kernel.Table
	refcount     int
	weakRefcount int
}

// mergeSchema validates a newly supplied schema against the entry's state
// and absorbs it where the rules allow.
//
// An entry created by a kernel-only registration has no schema yet and
// accepts the first one offered. After that, signatures must be identical;
// an unset alias analysis kind may be filled in exactly once, and set kinds
// must match.
func (e *operatorEntry) mergeSchema(s opschema.Schema) error {
	if e.schema == nil {
		cp := s
		e.schema = &cp
		return nil
	}
	if !e.schema.Equal(s) {
		return fmt.Errorf("%w: operator %s already registered with schema %s, conflicting schema %s",
			ErrSchemaMismatch, e.name, e.schema, s)
	}
	switch {
	case s.AliasAnalysis == opschema.AliasAnalysisDefault:
		// Nothing asserted, nothing to merge.
	case e.schema.AliasAnalysis == opschema.AliasAnalysisDefault:
		e.schema.AliasAnalysis = s.AliasAnalysis
	case e.schema.AliasAnalysis != s.AliasAnalysis:
		return fmt.Errorf("%w: operator %s registered with alias analysis %s, conflicting kind %s",
			ErrSchemaMismatch, e.name, e.schema.AliasAnalysis, s.AliasAnalysis)
	}
	return nil
}

// prepareForDeregistration asserts the entry's teardown invariants just
// before erasure. A kernel left installed means some registration was never
// reversed; that is registry corruption, not a recoverable condition.
func (e *operatorEntry) prepareForDeregistration() {
	if err := e.kernels.TeardownCheck(); err != nil {
		panic(fmt.Sprintf("dispatch: erasing operator %s: %v", e.name, err))
	}
}
