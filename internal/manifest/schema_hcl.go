// This file defines the HCL shapes of an operator manifest file, decoded
// verbatim by gohcl before translation into the model types.

package manifest

import "github.com/hashicorp/hcl/v2"

// hclManifestFile is the top-level structure of one manifest file.
type hclManifestFile struct {
	Operators []*hclOperator `hcl:"operator,block"`
	Fallbacks []*hclFallback `hcl:"fallback,block"`
}

// hclOperator is an `operator "name" { ... }` block.
type hclOperator struct {
	Base          string       `hcl:"name,label"`
	Overload      string       `hcl:"overload,optional"`
	AliasAnalysis string       `hcl:"alias_analysis,optional"`
	Args          []*hclArg    `hcl:"arg,block"`
	Returns       []*hclReturn `hcl:"returns,block"`
	Kernels       []*hclKernel `hcl:"kernel,block"`
}

// hclArg is an `arg "name" { type = ... }` block.
type hclArg struct {
	Name string         `hcl:"name,label"`
	Type hcl.Expression `hcl:"type"`
}

// hclReturn is a `returns { type = ... }` block.
type hclReturn struct {
	Name string         `hcl:"name,optional"`
	Type hcl.Expression `hcl:"type"`
}

// hclKernel is a `kernel { key = "cpu"; handler = "OnAdd" }` block. An
// omitted key installs the kernel in the operator's catch-all slot.
type hclKernel struct {
	Key     string `hcl:"key,optional"`
	Handler string `hcl:"handler"`
}

// hclFallback is a top-level `fallback { ... }` block. Either a handler
// name or `fallthrough = true` must be given.
type hclFallback struct {
	Key         string `hcl:"key"`
	Handler     string `hcl:"handler,optional"`
	Fallthrough bool   `hcl:"fallthrough,optional"`
}
