package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/catalog"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/rules"
)

// NewValidateCommand creates the "validate" command, which checks a
// rule catalog without running anything.
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog.cue>",
		Short: "Validate a rule catalog file",
		Long: `Validate a CUE rule catalog: schema conformance, and that every
override names a built-in rule. Nothing is evaluated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("read catalog %s", args[0]), err)
			}
			cat, err := catalog.Load(string(source))
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid catalog", err)
			}
			if _, err := cat.Apply(rules.Builtins()); err != nil {
				return WrapExitError(ExitCommandError, "invalid catalog", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d override(s)", args[0], len(cat.Overrides))
			if cat.MaxIterations > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", iteration budget %d", cat.MaxIterations)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
