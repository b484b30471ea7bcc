package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/callgen/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	Ledger string
	Runs   int
}

// HistoryResult is the output of the history command.
type HistoryResult struct {
	Latest *store.Run  `json:"latest,omitempty"`
	Runs   []store.Run `json:"runs,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [decl-root]",
		Short: "Show recorded generation runs",
		Long: `Show the latest run recorded in the generation ledger, with the
fingerprint and outcome of every file it wrote. With a declaration root,
only runs of that root are considered.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			return runHistory(rootOpts, opts, cmd, root)
		},
	}

	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "ledger database (default ledger.path from config)")
	cmd.Flags().IntVar(&opts.Runs, "runs", 0, "also list this many recent runs")

	return cmd
}

func runHistory(rootOpts *RootOptions, opts *HistoryOptions, cmd *cobra.Command, root string) error {
	out := rootOpts.formatter(cmd)

	overrides := map[string]any{}
	if opts.Ledger != "" {
		overrides["ledger.path"] = opts.Ledger
	}
	cfg, err := rootOpts.Config(root, overrides)
	if err != nil {
		_ = out.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "config failed", err)
	}
	if cfg.Ledger.Path == "" {
		msg := "no ledger: pass --ledger or set ledger.path"
		_ = out.Error("E005", msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	absRoot := ""
	if root != "" {
		if absRoot, err = filepath.Abs(root); err != nil {
			return WrapExitError(ExitCommandError, "decl root", err)
		}
	}

	s, err := store.Open(cfg.Ledger.Path)
	if err != nil {
		_ = out.Error("E005", err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening ledger", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	var result HistoryResult
	if result.Latest, err = s.LatestRun(ctx, absRoot); err != nil {
		return WrapExitError(ExitCommandError, "reading ledger", err)
	}
	if opts.Runs > 0 {
		if result.Runs, err = s.Runs(ctx, absRoot, opts.Runs); err != nil {
			return WrapExitError(ExitCommandError, "reading ledger", err)
		}
	}

	if out.JSON() {
		return out.Success(result)
	}

	if result.Latest == nil {
		fmt.Fprintln(out.Writer, "No runs recorded")
		return nil
	}
	printRun(out, result.Latest)
	if len(result.Runs) > 0 {
		fmt.Fprintln(out.Writer)
		fmt.Fprintln(out.Writer, "Recent runs:")
		for _, r := range result.Runs {
			fmt.Fprintf(out.Writer, "  #%d %s %s (%d files)\n", r.Seq, r.ModelFingerprint, r.Root, r.FileCount)
		}
	}
	return nil
}

func printRun(out *OutputFormatter, run *store.Run) {
	fmt.Fprintf(out.Writer, "Run #%d (%s)\n", run.Seq, run.ID)
	fmt.Fprintf(out.Writer, "  root:      %s\n", run.Root)
	fmt.Fprintf(out.Writer, "  generator: %s\n", run.GeneratorVersion)
	fmt.Fprintf(out.Writer, "  model:     %s\n", run.ModelFingerprint)
	fmt.Fprintf(out.Writer, "  files:     %d\n", run.FileCount)
	for _, o := range run.Outputs {
		fmt.Fprintf(out.Writer, "    %-9s %s\n", o.Outcome, o.Path)
	}
}
