// Package dispatchkey defines the enumeration of backend dispatch keys and
// a constant-time bitset over them.
//
// A dispatch key names either a concrete backend (CPU, CUDA, ...) or a
// cross-cutting mode that wraps backend execution (Autograd, Tracer, ...).
// Keys are totally ordered by declaration: a higher ordinal means higher
// dispatch priority, so key resolution picks the highest member of a set.
package dispatchkey
