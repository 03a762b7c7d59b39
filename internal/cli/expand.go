package cli

import (
	"github.com/spf13/cobra"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/provider"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/rules"
)

// NewExpandCommand creates the "expand" command.
func NewExpandCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expand <expression>",
		Short: "Expand products and integer powers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rules.ExpandRequest(args[0])
			if err != nil {
				if provider.IsParseError(err) {
					return WrapExitError(ExitCommandError, "invalid expression", err)
				}
				return WrapExitError(ExitCommandError, "invalid request", err)
			}
			return runAndRender(cmd, opts, req)
		},
	}
}
