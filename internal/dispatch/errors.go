package dispatch

import (
	"errors"
	"fmt"

	"github.com/vk/opdispatch/internal/dispatchkey"
)

// Validation errors surface at the registration call site and mean the
// registrant must fix a conflicting registration. They are never retried.
var (
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrDuplicateFallback = errors.New("duplicate fallback")
)

// ErrNoKernel is the dispatch-time resolution failure: either no backend
// key was resolvable at all, or the resolved key has neither a kernel nor a
// usable fallback. The call never proceeds with a guessed kernel.
var ErrNoKernel = errors.New("no kernel available")

// newDispatchError builds the descriptive resolution failure for op at key.
// The two cases read differently on purpose: an Undefined key means the
// arguments contributed no key at all, which usually indicates a caller
// bug rather than a missing backend.
func newDispatchError(op OperatorHandle, key dispatchkey.Key) error {
	available := op.Keys()
	if key == dispatchkey.Undefined {
		return fmt.Errorf("%w: no backend key was resolvable for a call to %s and no catch-all kernel is registered; "+
			"%s is available for keys %s", ErrNoKernel, op.Name(), op.Name(), available)
	}
	return fmt.Errorf("%w: could not run %s with backend key %s; %s is only available for keys %s",
		ErrNoKernel, op.Name(), key, op.Name(), available)
}
