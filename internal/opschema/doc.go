// Package opschema defines operator identity and operator schemas.
//
// An operator is identified by its Name, a (base, overload) pair. A Schema
// attaches a typed signature to a name: argument and return types are
// expressed as cty types so manifests, kernels and the dispatcher all share
// one type vocabulary.
package opschema
