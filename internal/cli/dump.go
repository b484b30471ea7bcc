package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/callgen/internal/ir"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	Library string
}

// Model is the resolved model printed by dump.
type Model struct {
	GeneratorVersion string         `json:"generator_version"`
	Libraries        []*ir.Library  `json:"libraries"`
	Categories       ir.CategoryMap `json:"categories"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump <decl-root>",
		Short: "Print the resolved model as canonical JSON",
		Long: `Resolve a declaration root and print the model templates are rendered
from, as canonical JSON with sorted keys. Useful for writing template
overrides and for diffing declaration changes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(rootOpts, opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Library, "library", "", "dump only this library")

	return cmd
}

func runDump(rootOpts *RootOptions, opts *DumpOptions, cmd *cobra.Command, root string) error {
	out := rootOpts.formatter(cmd)
	logger, err := rootOpts.Logger()
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

	var v any = Model{
		GeneratorVersion: ir.GeneratorVersion,
		Libraries:        result.Libraries,
		Categories:       result.Categories,
	}
	if opts.Library != "" {
		lib := findLibrary(result.Libraries, opts.Library)
		if lib == nil {
			msg := fmt.Sprintf("library %q not found", opts.Library)
			_ = out.Error("E005", msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		v = lib
	}

	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding model", err)
	}
	if out.JSON() {
		return out.Success(json.RawMessage(data))
	}
	fmt.Fprintln(out.Writer, string(data))
	return nil
}

func findLibrary(libs []*ir.Library, name string) *ir.Library {
	for _, lib := range libs {
		if lib.Name == name {
			return lib
		}
	}
	return nil
}
