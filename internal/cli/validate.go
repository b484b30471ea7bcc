package cli

import (
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <decl-root>",
		Short: "Validate declarations without generating output",
		Long: `Load and resolve a declaration root and report every error found.

Runs type resolution, argument normalization, inheritance linking and
category indexing, but writes nothing.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, root string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	logger, err := opts.Logger()
	if err != nil {
		return WrapExitError(ExitCommandError, "logger setup failed", err)
	}
	defer func() { _ = logger.Sync() }()

	decls, err := loadRoot(out, root, logger)
	if err != nil {
		return err
	}
	result, err := compileDecls(out, decls, logger)
	if err != nil {
		return err
	}

	summary := ValidationResult{
		Valid:      true,
		Libraries:  len(result.Libraries),
		Operations: countOperations(result.Libraries),
	}
	if out.JSON() {
		return out.Success(summary)
	}
	out.Check("All declarations valid (%d libraries, %d operations)", summary.Libraries, summary.Operations)
	return nil
}
