package manifest

import (
	"github.com/vk/opdispatch/internal/dispatchkey"
	"github.com/vk/opdispatch/internal/opschema"
)

// Model is the translated, HCL-free representation of every manifest file
// that was loaded.
type Model struct {
	Operators []*Operator
	Fallbacks []*Fallback
}

// Operator pairs a schema with the kernels its manifest declares.
type Operator struct {
	Schema  opschema.Schema
	Kernels []KernelSpec
}

// KernelSpec names the Go handler serving one dispatch key. A nil Key
// means the catch-all slot.
type KernelSpec struct {
	Key     *dispatchkey.Key
	Handler string
}

// Fallback declares a process-wide backend fallback: either a named
// handler or a pure fallthrough.
type Fallback struct {
	Key         dispatchkey.Key
	Handler     string
	Fallthrough bool
}
