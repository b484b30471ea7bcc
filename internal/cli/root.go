package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/callgen/internal/config"
	"github.com/roach88/callgen/internal/ir"
	"github.com/roach88/callgen/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    int    // -v count
	Debug      bool   // same as -vv
	Format     string // "json" | "text"
	ConfigFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Verbosity returns the effective -v count.
func (o *RootOptions) Verbosity() int {
	if o.Debug && o.Verbose < logging.VerbosityDebug {
		return logging.VerbosityDebug
	}
	return o.Verbose
}

// Logger builds the diagnostic logger for a command run.
func (o *RootOptions) Logger() (*zap.Logger, error) {
	return logging.New(o.Verbosity(), o.Format == "json")
}

// Config loads generator configuration for a declaration root.
func (o *RootOptions) Config(root string, overrides map[string]any) (*config.Config, error) {
	return config.Load(root, o.ConfigFile, overrides)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbosity() > 0,
	}
}

// NewRootCommand creates the root command for the callgen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "callgen",
		Short: "callgen - call wrapper generator",
		Long: `Generate C++ wrapper classes for system calls and library functions
from declarative operation tables, type maps and templates.`,
		Version:       ir.GeneratorVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().CountVarP(&opts.Verbose, "verbose", "v", "verbose output (repeat for debug)")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "debug output (same as -vv)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default <decl-root>/"+config.FileName+")")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
