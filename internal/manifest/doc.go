// Package manifest loads operator manifests written in HCL and applies
// them to a dispatcher.
//
// A manifest declares operators (schema, typed arguments and returns, and
// the kernels implementing them per dispatch key) plus process-wide
// backend fallbacks. Kernel blocks reference registered Go handlers by
// name; Apply resolves those names and performs the registrations,
// returning the registration handles so the caller owns their reversal.
package manifest
