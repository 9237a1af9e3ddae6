package dispatchkey

import (
	"fmt"
	"strings"
)

// Key identifies a backend or a cross-cutting dispatch mode.
type Key uint8

// Keys are declared in ascending dispatch priority. Undefined is the zero
// value and never owns a kernel table slot.
const (
	Undefined Key = iota
	CPU
	CUDA
	HIP
	XLA
	Vulkan
	SparseCPU
	SparseCUDA
	BackendSelect
	Batched
	Autograd
	Tracer
	Tester

	numKeys
)

// NumKeys is the number of addressable keys, Undefined excluded.
const NumKeys = int(numKeys) - 1

var keyNames = [numKeys]string{
	Undefined:     "undefined",
	CPU:           "cpu",
	CUDA:          "cuda",
	HIP:           "hip",
	XLA:           "xla",
	Vulkan:        "vulkan",
	SparseCPU:     "sparse_cpu",
	SparseCUDA:    "sparse_cuda",
	BackendSelect: "backend_select",
	Batched:       "batched",
	Autograd:      "autograd",
	Tracer:        "tracer",
	Tester:        "tester",
}

func (k Key) String() string {
	if k >= numKeys {
		return fmt.Sprintf("Key(%d)", uint8(k))
	}
	return keyNames[k]
}

// Valid reports whether k names an addressable key.
func (k Key) Valid() bool {
	return k > Undefined && k < numKeys
}

// Parse resolves a key name as it appears in manifests. Matching is
// case-insensitive.
func Parse(s string) (Key, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for k := Undefined + 1; k < numKeys; k++ {
		if keyNames[k] == want {
			return k, nil
		}
	}
	return Undefined, fmt.Errorf("unknown dispatch key %q", s)
}

// All returns every addressable key in ascending priority order.
func All() []Key {
	out := make([]Key, 0, NumKeys)
	for k := Undefined + 1; k < numKeys; k++ {
		out = append(out, k)
	}
	return out
}
