// Package handlers maps the handler names used in operator manifests to
// the compiled Go kernel functions that implement them.
//
// The handler set is populated at startup by kernel packs and is read-only
// afterwards; a duplicate name is a programmer error and panics.
package handlers

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/opdispatch/internal/kernel"
)

// Handlers holds all registered kernel functions by name.
type Handlers struct {
	all map[string]kernel.Func
}

// New creates an empty handler set.
func New() *Handlers {
	return &Handlers{
		all: make(map[string]kernel.Func),
	}
}

// Register adds a named kernel function.
func (h *Handlers) Register(name string, fn kernel.Func) {
	if _, exists := h.all[name]; exists {
		panic(fmt.Sprintf("kernel handler with name '%s' already registered", name))
	}
	if fn == nil {
		panic(fmt.Sprintf("kernel handler '%s' registered with nil function", name))
	}
	slog.Debug("Registering kernel handler.", "name", name)
	h.all[name] = fn
}

// Get returns the kernel function registered under name.
func (h *Handlers) Get(name string) (kernel.Func, bool) {
	fn, ok := h.all[name]
	return fn, ok
}

// Names returns all registered handler names, sorted.
func (h *Handlers) Names() []string {
	names := make([]string, 0, len(h.all))
	for name := range h.all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module is the interface a kernel pack implements to self-register its
// handlers during application startup.
type Module interface {
	Register(h *Handlers)
}
