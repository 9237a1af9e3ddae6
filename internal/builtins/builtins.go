// Package builtins is the built-in kernel pack: plain Go arithmetic
// kernels over cty numbers, registered under the handler names the bundled
// operator manifests refer to.
package builtins

import (
	"context"
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/opdispatch/internal/handlers"
)

// Module registers the built-in kernels.
type Module struct{}

func (Module) Register(h *handlers.Handlers) {
	h.Register("OnAdd", onAdd)
	h.Register("OnSub", onSub)
	h.Register("OnMul", onMul)
	h.Register("OnDiv", onDiv)
	h.Register("OnConcat", onConcat)
}

func numericArgs(args []cty.Value, want int) ([]*big.Float, error) {
	if len(args) != want {
		return nil, fmt.Errorf("expected %d arguments, got %d", want, len(args))
	}
	out := make([]*big.Float, len(args))
	for i, v := range args {
		if !v.Type().Equals(cty.Number) {
			return nil, fmt.Errorf("argument %d: expected number, got %s", i, v.Type().FriendlyName())
		}
		if v.IsNull() {
			return nil, fmt.Errorf("argument %d: must not be null", i)
		}
		out[i] = v.AsBigFloat()
	}
	return out, nil
}

func onAdd(ctx context.Context, args []cty.Value) (cty.Value, error) {
	nums, err := numericArgs(args, 2)
	if err != nil {
		return cty.NilVal, err
	}
	return cty.NumberVal(new(big.Float).Add(nums[0], nums[1])), nil
}

func onSub(ctx context.Context, args []cty.Value) (cty.Value, error) {
	nums, err := numericArgs(args, 2)
	if err != nil {
		return cty.NilVal, err
	}
	return cty.NumberVal(new(big.Float).Sub(nums[0], nums[1])), nil
}

func onMul(ctx context.Context, args []cty.Value) (cty.Value, error) {
	nums, err := numericArgs(args, 2)
	if err != nil {
		return cty.NilVal, err
	}
	return cty.NumberVal(new(big.Float).Mul(nums[0], nums[1])), nil
}

func onDiv(ctx context.Context, args []cty.Value) (cty.Value, error) {
	nums, err := numericArgs(args, 2)
	if err != nil {
		return cty.NilVal, err
	}
	if nums[1].Sign() == 0 {
		return cty.NilVal, fmt.Errorf("division by zero")
	}
	return cty.NumberVal(new(big.Float).Quo(nums[0], nums[1])), nil
}

func onConcat(ctx context.Context, args []cty.Value) (cty.Value, error) {
	if len(args) != 2 {
		return cty.NilVal, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	for i, v := range args {
		if !v.Type().Equals(cty.String) || v.IsNull() {
			return cty.NilVal, fmt.Errorf("argument %d: expected non-null string", i)
		}
	}
	return cty.StringVal(args[0].AsString() + args[1].AsString()), nil
}
