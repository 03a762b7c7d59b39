package cli

import (
	"github.com/spf13/cobra"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/provider"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/rules"
)

// NewDifferentiateCommand creates the "differentiate" command.
func NewDifferentiateCommand(opts *RootOptions) *cobra.Command {
	var (
		variable string
		order    int
	)

	cmd := &cobra.Command{
		Use:   "differentiate <expression>",
		Short: "Differentiate an expression step by step",
		Long: `Differentiate an expression with respect to a variable, recording
every rewrite as a separate step.

Examples:
  calcora differentiate "x**2 + 3*x"
  calcora differentiate "sin(x**2)" --var x
  calcora differentiate "x**3" --order 2 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rules.DifferentiateRequest(args[0], variable, order)
			if err != nil {
				if provider.IsParseError(err) {
					return WrapExitError(ExitCommandError, "invalid expression", err)
				}
				return WrapExitError(ExitCommandError, "invalid request", err)
			}
			return runAndRender(cmd, opts, req)
		},
	}

	cmd.Flags().StringVar(&variable, "var", "x", "variable to differentiate with respect to")
	cmd.Flags().IntVar(&order, "order", 1, "derivative order")

	return cmd
}
