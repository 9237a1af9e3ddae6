package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/opdispatch/internal/dispatch"
	"github.com/vk/opdispatch/internal/dispatchkey"
	"github.com/vk/opdispatch/internal/handlers"
	"github.com/vk/opdispatch/internal/kernel"
	"github.com/vk/opdispatch/internal/opschema"
)

func testHandlers(t *testing.T, names ...string) *handlers.Handlers {
	t.Helper()
	h := handlers.New()
	for _, name := range names {
		name := name
		h.Register(name, func(ctx context.Context, args []cty.Value) (cty.Value, error) {
			return cty.StringVal(name), nil
		})
	}
	return h
}

func loadModel(t *testing.T, manifest string) *Model {
	t.Helper()
	dir := t.TempDir()
	writeManifest(t, dir, "test.hcl", manifest)
	model, err := NewLoader().Load(testContext(), dir)
	require.NoError(t, err)
	return model
}

func TestApplyRegistersEverything(t *testing.T) {
	d := dispatch.New()
	h := testHandlers(t, "OnAdd")
	model := loadModel(t, addManifest)

	regs, err := Apply(testContext(), d, h, model)
	require.NoError(t, err)
	// One schema, two kernels, one fallback.
	require.Len(t, regs, 4)

	op, ok := d.Find(opschema.NewName("add", ""))
	require.True(t, ok)
	assert.True(t, op.HasSchema())
	assert.True(t, op.Keys().Has(dispatchkey.CPU))
	assert.True(t, op.HasCatchAll())

	// The autograd fallthrough fallback is installed process-wide.
	assert.False(t, d.KeysWithoutFallthrough().Has(dispatchkey.Autograd))

	// Dispatching through the applied registrations reaches the handler.
	result, err := d.Call(context.Background(), op, dispatchkey.Set(0).Add(dispatchkey.CPU), nil)
	require.NoError(t, err)
	assert.Equal(t, "OnAdd", result.AsString())

	for i := len(regs) - 1; i >= 0; i-- {
		regs[i].Deregister()
	}
	_, ok = d.Find(opschema.NewName("add", ""))
	assert.False(t, ok)
	assert.Equal(t, 0, d.OperatorCount())
}

func TestApplyUnknownHandlerRollsBack(t *testing.T) {
	d := dispatch.New()
	h := testHandlers(t) // no handlers at all
	model := loadModel(t, addManifest)

	_, err := Apply(testContext(), d, h, model)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no kernel handler named "OnAdd"`)

	// The schema registration made before the failure was rolled back.
	_, ok := d.Find(opschema.NewName("add", ""))
	assert.False(t, ok)
	assert.Equal(t, 0, d.OperatorCount())
}

func TestApplyDuplicateFallbackRollsBack(t *testing.T) {
	d := dispatch.New()
	h := testHandlers(t, "OnAdd")
	model := loadModel(t, addManifest)

	// Occupy the autograd fallback slot so Apply's fallback registration
	// collides.
	occupant := kernel.New("occupant", func(ctx context.Context, args []cty.Value) (cty.Value, error) {
		return cty.StringVal("occupant"), nil
	})
	existing, err := d.RegisterFallback(dispatchkey.Autograd, occupant)
	require.NoError(t, err)
	defer existing.Deregister()

	_, err = Apply(testContext(), d, h, model)
	require.Error(t, err)
	assert.ErrorIs(t, err, dispatch.ErrDuplicateFallback)

	_, ok := d.Find(opschema.NewName("add", ""))
	assert.False(t, ok, "operator registrations must be rolled back")
	assert.Equal(t, 0, d.OperatorCount())
}

func TestApplyFallbackHandler(t *testing.T) {
	d := dispatch.New()
	h := testHandlers(t, "OnAdd", "OnTrace")
	model := loadModel(t, `
operator "add" {
  kernel {
    key     = "cpu"
    handler = "OnAdd"
  }
}

fallback {
  key     = "tracer"
  handler = "OnTrace"
}
`)

	regs, err := Apply(testContext(), d, h, model)
	require.NoError(t, err)
	defer func() {
		for i := len(regs) - 1; i >= 0; i-- {
			regs[i].Deregister()
		}
	}()

	op, ok := d.Find(opschema.NewName("add", ""))
	require.True(t, ok)

	result, err := d.Call(context.Background(), op, dispatchkey.Set(0).Add(dispatchkey.Tracer), nil)
	require.NoError(t, err)
	assert.Equal(t, "OnTrace", result.AsString())
}
