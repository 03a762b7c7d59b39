package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/catalog"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/engine"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/history"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/provider"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/registry"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/render"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/rules"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/symbolic"
)

// buildRules returns the rule set with any catalog overrides applied,
// plus the effective iteration budget (0 means engine default).
func buildRules(opts *RootOptions) ([]registry.Rule, int, error) {
	ruleSet := rules.Builtins()
	maxIter := 0
	if opts.cfg != nil {
		maxIter = opts.cfg.MaxIterations
	}

	if opts.Catalog != "" {
		source, err := os.ReadFile(opts.Catalog)
		if err != nil {
			return nil, 0, WrapExitError(ExitCommandError, fmt.Sprintf("read catalog %s", opts.Catalog), err)
		}
		cat, err := catalog.Load(string(source))
		if err != nil {
			return nil, 0, WrapExitError(ExitCommandError, "load catalog", err)
		}
		ruleSet, err = cat.Apply(ruleSet)
		if err != nil {
			return nil, 0, WrapExitError(ExitCommandError, "apply catalog", err)
		}
		if cat.MaxIterations > 0 {
			maxIter = cat.MaxIterations
		}
	}
	return ruleSet, maxIter, nil
}

// buildEngine wires the registry, provider and options into an engine.
func buildEngine(opts *RootOptions) (*engine.Engine, error) {
	ruleSet, maxIter, err := buildRules(opts)
	if err != nil {
		return nil, err
	}
	reg := registry.New()
	for _, r := range ruleSet {
		if err := reg.Register(r); err != nil {
			return nil, WrapExitError(ExitCommandError, "register rules", err)
		}
	}
	var engineOpts []engine.Option
	if maxIter > 0 {
		engineOpts = append(engineOpts, engine.WithMaxIterations(maxIter))
	}
	return engine.New(reg, symbolic.Provider{}, engineOpts...), nil
}

// runAndRender executes a request, prints the result and saves it to
// history when a database is configured.
func runAndRender(cmd *cobra.Command, opts *RootOptions, req engine.Request) error {
	eng, err := buildEngine(opts)
	if err != nil {
		return err
	}

	res, err := eng.Run(cmd.Context(), req)
	if err != nil {
		return mapEngineError(err)
	}

	if opts.Database != "" {
		store, err := history.Open(opts.Database, history.UUIDv7Generator{})
		if err != nil {
			return WrapExitError(ExitCommandError, "open history database", err)
		}
		defer store.Close()
		id, err := store.Save(cmd.Context(), res)
		if err != nil {
			return WrapExitError(ExitCommandError, "save history", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved as %s\n", id)
	}

	return printResult(cmd, opts, res)
}

func printResult(cmd *cobra.Command, opts *RootOptions, res *engine.Result) error {
	switch opts.Format {
	case "json":
		out, err := render.JSONRenderer{}.Render(res)
		if err != nil {
			return WrapExitError(ExitFailure, "render result", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	default:
		v, _ := render.ParseVerbosity(opts.Verbosity)
		fmt.Fprint(cmd.OutOrStdout(), render.TextRenderer{Verbosity: v}.Render(res))
	}
	return nil
}

// mapEngineError translates engine failures into exit codes: malformed
// input is a command error, non-convergence an evaluation failure.
func mapEngineError(err error) error {
	switch {
	case provider.IsParseError(err):
		return WrapExitError(ExitCommandError, "invalid expression", err)
	case engine.IsNonConvergence(err):
		return WrapExitError(ExitFailure, "evaluation did not converge", err)
	default:
		return WrapExitError(ExitFailure, "evaluation failed", err)
	}
}
