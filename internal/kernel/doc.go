// Package kernel defines the callable unit of dispatch and the two tables
// that hold kernels: the per-operator Table (keyed slots plus a catch-all
// slot) and the process-wide FallbackTable consulted when an operator has
// no kernel of its own for a resolved key.
package kernel
