package manifest

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/opdispatch/internal/ctxlog"
	"github.com/vk/opdispatch/internal/dispatchkey"
	"github.com/vk/opdispatch/internal/fsutil"
	"github.com/vk/opdispatch/internal/opschema"
)

// Loader parses operator manifest files into the format-agnostic Model.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a manifest loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads every .hcl manifest reachable from the given paths. A path
// may be a single file or a directory searched recursively.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("manifest path %s: %w", path, err)
		}
		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, fmt.Errorf("walking manifest directory %s: %w", path, err)
			}
			files = append(files, found...)
		} else {
			files = append(files, path)
		}
	}

	if len(files) == 0 {
		logger.Warn("No manifest files found.", "paths", paths)
	}

	model := &Model{}
	for _, file := range files {
		if err := l.loadFile(ctx, file, model); err != nil {
			return nil, err
		}
		logger.Debug("Loaded operator manifest.", "file", file)
	}

	logger.Info("Manifests loaded.", "operators", len(model.Operators), "fallbacks", len(model.Fallbacks))
	return model, nil
}

func (l *Loader) loadFile(ctx context.Context, path string, model *Model) error {
	hclFile, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse manifest file %s: %w", path, diags)
	}

	var parsed hclManifestFile
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &parsed); diags.HasErrors() {
		return fmt.Errorf("failed to decode manifest file %s: %w", path, diags)
	}

	for _, rawOp := range parsed.Operators {
		op, err := l.translateOperator(ctx, rawOp)
		if err != nil {
			return fmt.Errorf("in manifest file %s: %w", path, err)
		}
		model.Operators = append(model.Operators, op)
	}
	for _, rawFb := range parsed.Fallbacks {
		fb, err := l.translateFallback(rawFb)
		if err != nil {
			return fmt.Errorf("in manifest file %s: %w", path, err)
		}
		model.Fallbacks = append(model.Fallbacks, fb)
	}
	return nil
}

// translateOperator converts one HCL operator block into the model,
// parsing type expressions, the alias analysis kind and kernel keys.
func (l *Loader) translateOperator(ctx context.Context, raw *hclOperator) (*Operator, error) {
	name := opschema.NewName(raw.Base, raw.Overload)

	alias, err := opschema.ParseAliasAnalysis(raw.AliasAnalysis)
	if err != nil {
		return nil, fmt.Errorf("operator %s: %w", name, err)
	}

	schema := opschema.Schema{Name: name, AliasAnalysis: alias}
	for _, arg := range raw.Args {
		argType, err := typeExprToCtyType(ctx, arg.Type)
		if err != nil {
			return nil, fmt.Errorf("operator %s, arg %q: %w", name, arg.Name, err)
		}
		schema.Args = append(schema.Args, opschema.Argument{Name: arg.Name, Type: argType})
	}
	for i, ret := range raw.Returns {
		retType, err := typeExprToCtyType(ctx, ret.Type)
		if err != nil {
			return nil, fmt.Errorf("operator %s, return %d: %w", name, i, err)
		}
		schema.Returns = append(schema.Returns, opschema.Argument{Name: ret.Name, Type: retType})
	}

	op := &Operator{Schema: schema}
	for _, rawKernel := range raw.Kernels {
		spec := KernelSpec{Handler: rawKernel.Handler}
		if rawKernel.Key != "" {
			key, err := dispatchkey.Parse(rawKernel.Key)
			if err != nil {
				return nil, fmt.Errorf("operator %s: %w", name, err)
			}
			spec.Key = &key
		}
		op.Kernels = append(op.Kernels, spec)
	}
	return op, nil
}

func (l *Loader) translateFallback(raw *hclFallback) (*Fallback, error) {
	key, err := dispatchkey.Parse(raw.Key)
	if err != nil {
		return nil, fmt.Errorf("fallback block: %w", err)
	}
	if raw.Fallthrough && raw.Handler != "" {
		return nil, fmt.Errorf("fallback for key %s: handler and fallthrough are mutually exclusive", key)
	}
	if !raw.Fallthrough && raw.Handler == "" {
		return nil, fmt.Errorf("fallback for key %s: either handler or fallthrough = true is required", key)
	}
	return &Fallback{Key: key, Handler: raw.Handler, Fallthrough: raw.Fallthrough}, nil
}
