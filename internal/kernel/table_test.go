package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/opdispatch/internal/dispatchkey"
)

func keyPtr(k dispatchkey.Key) *dispatchkey.Key {
	return &k
}

func TestTableInstallLookupRemove(t *testing.T) {
	var table Table

	assert.Nil(t, table.Lookup(dispatchkey.CPU))

	tok := table.Install(keyPtr(dispatchkey.CPU), echoKernel("cpu-impl"))
	got := table.Lookup(dispatchkey.CPU)
	require.NotNil(t, got)
	assert.Equal(t, "cpu-impl", got.Label())

	// Other keys are unaffected.
	assert.Nil(t, table.Lookup(dispatchkey.CUDA))

	table.Remove(keyPtr(dispatchkey.CPU), tok)
	assert.Nil(t, table.Lookup(dispatchkey.CPU))
}

func TestTableNewestKernelWins(t *testing.T) {
	var table Table

	tokOld := table.Install(keyPtr(dispatchkey.CPU), echoKernel("old"))
	tokNew := table.Install(keyPtr(dispatchkey.CPU), echoKernel("new"))
	assert.Equal(t, "new", table.Lookup(dispatchkey.CPU).Label())

	// Removing the shadowing kernel restores the shadowed one.
	table.Remove(keyPtr(dispatchkey.CPU), tokNew)
	assert.Equal(t, "old", table.Lookup(dispatchkey.CPU).Label())

	// Removal by token works regardless of stacking order.
	tokNewer := table.Install(keyPtr(dispatchkey.CPU), echoKernel("newer"))
	table.Remove(keyPtr(dispatchkey.CPU), tokOld)
	assert.Equal(t, "newer", table.Lookup(dispatchkey.CPU).Label())
	table.Remove(keyPtr(dispatchkey.CPU), tokNewer)
	assert.Nil(t, table.Lookup(dispatchkey.CPU))
}

func TestTableCatchAll(t *testing.T) {
	var table Table

	tok := table.Install(nil, echoKernel("generic"))
	assert.True(t, table.HasCatchAll())

	// Any key without a dedicated kernel resolves to the catch-all, and so
	// does Undefined.
	assert.Equal(t, "generic", table.Lookup(dispatchkey.CUDA).Label())
	assert.Equal(t, "generic", table.Lookup(dispatchkey.Undefined).Label())

	// A keyed kernel shadows the catch-all for its key only.
	cpuTok := table.Install(keyPtr(dispatchkey.CPU), echoKernel("cpu-impl"))
	assert.Equal(t, "cpu-impl", table.Lookup(dispatchkey.CPU).Label())
	assert.Equal(t, "generic", table.Lookup(dispatchkey.CUDA).Label())

	table.Remove(keyPtr(dispatchkey.CPU), cpuTok)
	table.Remove(nil, tok)
	assert.False(t, table.HasCatchAll())
	assert.Nil(t, table.Lookup(dispatchkey.CUDA))
}

func TestTableRemoveKeyMismatchPanics(t *testing.T) {
	var table Table
	tok := table.Install(keyPtr(dispatchkey.CPU), echoKernel("cpu-impl"))
	assert.Panics(t, func() { table.Remove(keyPtr(dispatchkey.CUDA), tok) })
}

func TestTableKeys(t *testing.T) {
	var table Table
	table.Install(keyPtr(dispatchkey.CPU), echoKernel("a"))
	table.Install(keyPtr(dispatchkey.Autograd), echoKernel("b"))
	table.Install(nil, echoKernel("c"))

	keys := table.Keys()
	assert.Equal(t, []dispatchkey.Key{dispatchkey.CPU, dispatchkey.Autograd}, keys.Keys())
}

func TestTableTeardownCheck(t *testing.T) {
	var table Table
	require.NoError(t, table.TeardownCheck())

	tok := table.Install(keyPtr(dispatchkey.CPU), echoKernel("leftover"))
	err := table.TeardownCheck()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cpu")

	table.Remove(keyPtr(dispatchkey.CPU), tok)
	assert.NoError(t, table.TeardownCheck())
}
