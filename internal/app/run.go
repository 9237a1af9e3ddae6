package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/opdispatch/internal/ctxlog"
	"github.com/vk/opdispatch/internal/dispatchkey"
	"github.com/vk/opdispatch/internal/manifest"
	"github.com/vk/opdispatch/internal/opschema"
)

// Run executes the main application logic: attach listeners, load and apply
// the operator manifests, report the live operator inventory, optionally
// evaluate one call through the dispatch path, then reverse every
// registration on the way out.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	// Listeners attach before any registration so the log stream and the
	// inventory cover the complete history (the replay is empty here, but
	// pre-populated dispatchers injected by tests get replayed correctly).
	a.dispatcher.AddListener(&logListener{logger: a.logger})
	a.dispatcher.AddListener(a.inventory)

	model, err := manifest.NewLoader().Load(ctx, a.config.ManifestPath)
	if err != nil {
		return fmt.Errorf("failed to load operator manifests: %w", err)
	}

	regs, err := manifest.Apply(ctx, a.dispatcher, a.handlers, model)
	if err != nil {
		return fmt.Errorf("failed to apply operator manifests: %w", err)
	}
	a.regs = regs
	defer a.shutdown()

	if a.config.HealthcheckPort > 0 {
		a.healthCheckServer()
		defer a.closeHealthCheckServer()
	}

	a.printInventory()

	if a.config.CallOp != "" {
		if err := a.evaluateCall(ctx); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// shutdown reverses every manifest registration, newest first.
func (a *App) shutdown() {
	a.logger.Debug("Reversing manifest registrations.", "count", len(a.regs))
	for i := len(a.regs) - 1; i >= 0; i-- {
		a.regs[i].Deregister()
	}
	a.regs = nil
}

// printInventory writes the live operator set to the application's output.
func (a *App) printInventory() {
	summaries := a.inventory.snapshot()
	fmt.Fprintf(a.outW, "%d operator(s) registered\n", len(summaries))
	for _, s := range summaries {
		line := s.Name
		if s.Schema != "" {
			line = s.Schema
		}
		fmt.Fprintf(a.outW, "  %s  keys=%s", line, s.Keys)
		if s.CatchAll {
			fmt.Fprint(a.outW, " catch-all")
		}
		fmt.Fprintln(a.outW)
	}
}

// evaluateCall resolves and dispatches the call requested on the command
// line, printing the result as JSON.
func (a *App) evaluateCall(ctx context.Context) error {
	name := parseOperatorName(a.config.CallOp)
	op, ok := a.dispatcher.Find(name)
	if !ok {
		return fmt.Errorf("no operator named %s is registered", name)
	}

	var keys dispatchkey.Set
	for _, raw := range a.config.CallKeys {
		key, err := dispatchkey.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing call keys: %w", err)
		}
		keys = keys.Add(key)
	}

	args := make([]cty.Value, 0, len(a.config.CallArgs))
	for _, raw := range a.config.CallArgs {
		args = append(args, parseArgValue(raw))
	}

	result, err := a.dispatcher.Call(ctx, op, keys, args)
	if err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}

	rendered, err := ctyjson.Marshal(result, result.Type())
	if err != nil {
		return fmt.Errorf("rendering call result: %w", err)
	}
	fmt.Fprintf(a.outW, "%s(%s) = %s\n", name, strings.Join(a.config.CallArgs, ", "), rendered)
	return nil
}

// parseOperatorName splits "base.overload" into a Name; a bare base maps
// to the default overload.
func parseOperatorName(s string) opschema.Name {
	if base, overload, found := strings.Cut(s, "."); found {
		return opschema.NewName(base, overload)
	}
	return opschema.NewName(s, "")
}

// parseArgValue interprets a raw CLI argument as a number when possible,
// falling back to a string.
func parseArgValue(raw string) cty.Value {
	if v, err := cty.ParseNumberVal(raw); err == nil {
		return v
	}
	return cty.StringVal(raw)
}
