package manifest

import (
	"context"
	"fmt"

	"github.com/vk/opdispatch/internal/ctxlog"
	"github.com/vk/opdispatch/internal/dispatch"
	"github.com/vk/opdispatch/internal/handlers"
	"github.com/vk/opdispatch/internal/kernel"
)

// Apply performs every registration the model declares against d,
// resolving kernel handler names through h. On success it returns the
// registration handles in registration order; the caller owns their
// reversal. On failure every registration made so far is reversed, in
// reverse order, before the error is returned.
func Apply(ctx context.Context, d *dispatch.Dispatcher, h *handlers.Handlers, model *Model) ([]*dispatch.Registration, error) {
	logger := ctxlog.FromContext(ctx)

	var regs []*dispatch.Registration
	rollback := func() {
		for i := len(regs) - 1; i >= 0; i-- {
			regs[i].Deregister()
		}
	}

	for _, op := range model.Operators {
		reg, err := d.RegisterSchema(op.Schema)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("registering schema %s: %w", op.Schema, err)
		}
		regs = append(regs, reg)
		logger.Debug("Registered operator schema.", "operator", op.Schema.Name.String())

		for _, spec := range op.Kernels {
			fn, ok := h.Get(spec.Handler)
			if !ok {
				rollback()
				return nil, fmt.Errorf("operator %s: no kernel handler named %q is registered", op.Schema.Name, spec.Handler)
			}
			reg, err := d.RegisterKernel(op.Schema.Name, spec.Key, kernel.New(spec.Handler, fn))
			if err != nil {
				rollback()
				return nil, fmt.Errorf("registering kernel %q for operator %s: %w", spec.Handler, op.Schema.Name, err)
			}
			regs = append(regs, reg)
		}
	}

	for _, fb := range model.Fallbacks {
		k := kernel.NewFallthrough()
		if !fb.Fallthrough {
			fn, ok := h.Get(fb.Handler)
			if !ok {
				rollback()
				return nil, fmt.Errorf("fallback for key %s: no kernel handler named %q is registered", fb.Key, fb.Handler)
			}
			k = kernel.New(fb.Handler, fn)
		}
		reg, err := d.RegisterFallback(fb.Key, k)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("registering fallback for key %s: %w", fb.Key, err)
		}
		regs = append(regs, reg)
		logger.Debug("Registered backend fallback.", "key", fb.Key.String(), "fallthrough", fb.Fallthrough)
	}

	return regs, nil
}
