package dispatch

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/opdispatch/internal/dispatchkey"
	"github.com/vk/opdispatch/internal/kernel"
)

// Call dispatches one invocation of op. keys is the candidate key set the
// caller computed from its arguments; resolution intersects it with the
// keys-without-fallthrough set (skipping keys whose fallback is a pure
// pass-through), then walks the remaining keys from highest priority down:
// the operator's own kernel wins over the process-wide fallback, and an
// operator-level fallthrough kernel forwards to the next key. An empty
// candidate set resolves through the catch-all slot only.
//
// Call takes no lock. It reads the already-resolved handle and the
// atomically published fallthrough mask, so it runs concurrently with
// registrations at full speed.
func (d *Dispatcher) Call(ctx context.Context, op OperatorHandle, keys dispatchkey.Set, args []cty.Value) (cty.Value, error) {
	remaining := keys.Intersect(d.KeysWithoutFallthrough())
	for !remaining.Empty() {
		key := remaining.Highest()
		if k := d.resolve(op, key); k != nil {
			if k.IsFallthrough() {
				remaining = remaining.Remove(key)
				continue
			}
			return k.Call(ctx, args)
		}
		return cty.NilVal, newDispatchError(op, key)
	}

	// No key resolved at all; a catch-all kernel is the only way out.
	if k := op.Lookup(dispatchkey.Undefined); k != nil && !k.IsFallthrough() {
		return k.Call(ctx, args)
	}
	return cty.NilVal, newDispatchError(op, dispatchkey.Undefined)
}

// resolve picks the kernel serving op at key: the operator's own table
// first (keyed slot, then catch-all), then the backend fallback table.
func (d *Dispatcher) resolve(op OperatorHandle, key dispatchkey.Key) *kernel.Kernel {
	if k := op.Lookup(key); k != nil {
		return k
	}
	return d.fallbacks.Lookup(key)
}
