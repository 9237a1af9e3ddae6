package kernel

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Func is the signature every kernel implementation satisfies. Arguments
// and results are cty values so kernels, schemas and manifests share one
// type vocabulary.
type Func func(ctx context.Context, args []cty.Value) (cty.Value, error)

// Kernel is one concrete implementation of an operator for some dispatch
// key. A fallthrough kernel carries no function at all: it marks its key as
// requiring no dispatch-time work, letting resolution skip straight past it.
type Kernel struct {
	fn          Func
	passthrough bool
	label       string
}

// New wraps fn as a callable kernel. The label names the implementation in
// logs and dispatch errors.
func New(label string, fn Func) *Kernel {
	if fn == nil {
		panic(fmt.Sprintf("kernel: nil function for kernel %q", label))
	}
	return &Kernel{fn: fn, label: label}
}

// NewFallthrough returns the pass-through kernel.
func NewFallthrough() *Kernel {
	return &Kernel{passthrough: true, label: "fallthrough"}
}

// IsFallthrough reports whether the kernel is a pure pass-through.
func (k *Kernel) IsFallthrough() bool {
	return k.passthrough
}

// Label returns the kernel's debug label.
func (k *Kernel) Label() string {
	return k.label
}

// Call invokes the kernel. Calling a fallthrough kernel is a programming
// error: resolution must have skipped it.
func (k *Kernel) Call(ctx context.Context, args []cty.Value) (cty.Value, error) {
	if k.passthrough {
		panic("kernel: called a fallthrough kernel")
	}
	return k.fn(ctx, args)
}
