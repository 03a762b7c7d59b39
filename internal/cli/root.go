// Package cli implements the calcora command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/render"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "text" | "json"
	Verbosity string // "concise" | "detailed" | "teacher"
	Config    string // optional YAML config path
	Catalog   string // optional CUE catalog path
	Database  string // optional history database path

	cfg *Config
}

// ValidFormats lists the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the calcora root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "calcora",
		Short: "Calcora - step-by-step symbolic computation",
		Long: `Calcora evaluates symbolic expressions one rule at a time and
records every step it takes, so a derivative arrives together with the
worked solution that produced it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.finalize(); err != nil {
				return err
			}
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose diagnostic output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.Verbosity, "verbosity", "", "explanation verbosity (concise|detailed|teacher)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "path to CUE rule catalog")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to history database")

	cmd.AddCommand(NewDifferentiateCommand(opts))
	cmd.AddCommand(NewSimplifyCommand(opts))
	cmd.AddCommand(NewExpandCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// finalize merges flags over the config file and validates the result.
// Precedence: flag, then config file, then default.
func (o *RootOptions) finalize() error {
	cfg, err := LoadConfig(o.Config)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if o.Format == "" {
		o.Format = cfg.Format
	}
	if o.Verbosity == "" {
		o.Verbosity = cfg.Verbosity
	}
	if o.Catalog == "" {
		o.Catalog = cfg.Catalog
	}
	if o.Database == "" {
		o.Database = cfg.Database
	}

	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	if _, err := render.ParseVerbosity(o.Verbosity); err != nil {
		return WrapExitError(ExitCommandError, "invalid verbosity", err)
	}
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
