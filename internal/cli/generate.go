package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/callgen/internal/config"
	"github.com/roach88/callgen/internal/ir"
	"github.com/roach88/callgen/internal/logging"
	"github.com/roach88/callgen/internal/output"
	"github.com/roach88/callgen/internal/render"
	"github.com/roach88/callgen/internal/store"
)

// GenerateOptions holds flags for the generate and list commands.
type GenerateOptions struct {
	Headers  bool
	Sources  bool
	Ledger   string
	NoFormat bool
}

// GenerateResult summarizes a generation run.
type GenerateResult struct {
	Files     []render.Emitted `json:"files"`
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	Unchanged int              `json:"unchanged"`
	RunID     string           `json:"run_id,omitempty"`
	RunSeq    int64            `json:"run_seq,omitempty"`
}

// ListResult is the output of list mode.
type ListResult struct {
	Paths []string `json:"paths"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <decl-root> [<header-dir> <source-dir>]",
		Short: "Generate wrapper sources from a declaration root",
		Long: `Resolve a declaration root and write the generated headers and sources.

Output directories come from the arguments or from output.header_dir and
output.source_dir in the config. Files whose content is unchanged are not
touched. With --headers or --sources nothing is written; the paths the run
would produce are printed as a semicolon-separated list.`,
		Args:          cobra.RangeArgs(1, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Headers, "headers", false, "list header paths instead of generating")
	cmd.Flags().BoolVar(&opts.Sources, "sources", false, "list source paths instead of generating")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "record the run in this ledger database")
	cmd.Flags().BoolVar(&opts.NoFormat, "no-format", false, "skip the external source formatter")

	return cmd
}

// NewListCommand creates the list command: generate in list mode, listing
// headers and sources unless one of them is selected.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:           "list <decl-root> [<header-dir> <source-dir>]",
		Short:         "Print the paths generate would produce",
		Args:          cobra.RangeArgs(1, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Headers && !opts.Sources {
				opts.Headers, opts.Sources = true, true
			}
			return runGenerate(rootOpts, opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Headers, "headers", false, "list header paths only")
	cmd.Flags().BoolVar(&opts.Sources, "sources", false, "list source paths only")

	return cmd
}

func runGenerate(rootOpts *RootOptions, opts *GenerateOptions, cmd *cobra.Command, args []string) error {
	out := rootOpts.formatter(cmd)
	root := args[0]

	logger, err := rootOpts.Logger()
	if err != nil {
		return WrapExitError(ExitCommandError, "logger setup failed", err)
	}
	defer func() { _ = logger.Sync() }()

	overrides := map[string]any{}
	if opts.Ledger != "" {
		overrides["ledger.path"] = opts.Ledger
	}
	if opts.NoFormat {
		overrides["formatter.enabled"] = false
	}
	cfg, err := rootOpts.Config(root, overrides)
	if err != nil {
		_ = out.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "config failed", err)
	}
	if cfg.File != "" {
		out.VerboseLog("Using config %s", cfg.File)
	}

	layout, err := resolveLayout(args, cfg)
	if err != nil {
		_ = out.Error("E001", err.Error(), nil)
		return err
	}

	decls, err := loadRoot(out, root, logger)
	if err != nil {
		return err
	}

	if opts.Headers || opts.Sources {
		files := layout.Plan(decls)
		if out.JSON() {
			return out.Success(ListResult{Paths: output.Paths(files, opts.Headers, opts.Sources)})
		}
		fmt.Fprint(out.Writer, output.JoinPaths(files, opts.Headers, opts.Sources))
		return nil
	}

	result, err := compileDecls(out, decls, logger)
	if err != nil {
		return err
	}

	emitter, err := newEmitter(cfg, layout, logger)
	if err != nil {
		_ = out.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "template setup failed", err)
	}
	emitted, err := emitter.Emit(cmd.Context(), result.Libraries, result.Categories)
	if err != nil {
		_ = out.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "generation failed", err)
	}

	summary := summarize(emitted)
	if cfg.Ledger.Path != "" {
		run, err := recordRun(cmd, cfg.Ledger.Path, root, result.Libraries, emitted, logger)
		if err != nil {
			_ = out.Error("E001", err.Error(), nil)
			return WrapExitError(ExitCommandError, "ledger update failed", err)
		}
		summary.RunID, summary.RunSeq = run.ID, run.Seq
	}

	if out.JSON() {
		return out.Success(summary)
	}
	out.Check("Generated %d file(s): %d created, %d updated, %d unchanged",
		len(summary.Files), summary.Created, summary.Updated, summary.Unchanged)
	if summary.RunID != "" {
		out.VerboseLog("Recorded run #%d (%s)", summary.RunSeq, summary.RunID)
	}
	return nil
}

// resolveLayout picks output directories from the arguments, falling back
// to the config, and makes them absolute.
func resolveLayout(args []string, cfg *config.Config) (output.Layout, error) {
	var headerDir, sourceDir string
	switch len(args) {
	case 3:
		headerDir, sourceDir = args[1], args[2]
	case 1:
		headerDir, sourceDir = cfg.Output.HeaderDir, cfg.Output.SourceDir
	default:
		return output.Layout{}, NewExitError(ExitCommandError, "give both <header-dir> and <source-dir>, or neither")
	}
	if headerDir == "" || sourceDir == "" {
		return output.Layout{}, NewExitError(ExitCommandError,
			"output directories required: pass <header-dir> <source-dir> or set output.header_dir and output.source_dir")
	}

	h, err := filepath.Abs(headerDir)
	if err != nil {
		return output.Layout{}, WrapExitError(ExitCommandError, "header dir", err)
	}
	s, err := filepath.Abs(sourceDir)
	if err != nil {
		return output.Layout{}, WrapExitError(ExitCommandError, "source dir", err)
	}
	return output.Layout{HeaderDir: h, SourceDir: s}, nil
}

func newEmitter(cfg *config.Config, layout output.Layout, logger *zap.Logger) (*render.Emitter, error) {
	renderer, err := render.NewTemplateRenderer(cfg.Templates.Dir)
	if err != nil {
		return nil, err
	}
	emitter := render.NewEmitter(renderer, output.NewWriter(logger), layout, logger)
	if cfg.Formatter.Enabled {
		emitter.Formatter = render.ExecFormatter{Command: cfg.Formatter.Command, Args: cfg.Formatter.Args}
	}
	return emitter, nil
}

func summarize(emitted []render.Emitted) GenerateResult {
	summary := GenerateResult{Files: emitted}
	for _, e := range emitted {
		switch e.Outcome {
		case output.Created:
			summary.Created++
		case output.Updated:
			summary.Updated++
		case output.Unchanged:
			summary.Unchanged++
		}
	}
	return summary
}

// recordRun appends the run to the ledger, noting when the resolved model
// matches the previous run of the same root.
func recordRun(cmd *cobra.Command, path, root string, libs []*ir.Library, emitted []render.Emitted, logger *zap.Logger) (store.Run, error) {
	log := logging.OrNop(logger)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return store.Run{}, err
	}
	fingerprint, err := ir.ModelFingerprint(libs)
	if err != nil {
		return store.Run{}, err
	}

	s, err := store.Open(path)
	if err != nil {
		return store.Run{}, err
	}
	defer s.Close()

	ctx := cmd.Context()
	prev, err := s.LatestRun(ctx, absRoot)
	if err != nil {
		return store.Run{}, err
	}
	if prev != nil && prev.ModelFingerprint == fingerprint {
		log.Info("resolved model unchanged since previous run",
			zap.Int64("seq", prev.Seq),
			zap.String(logging.FieldPath, absRoot))
	}

	run := store.Run{
		Root:             absRoot,
		GeneratorVersion: ir.GeneratorVersion,
		ModelFingerprint: fingerprint,
	}
	for _, e := range emitted {
		run.Outputs = append(run.Outputs, store.Output{
			Path:        e.Path,
			Fingerprint: e.Fingerprint,
			Outcome:     string(e.Outcome),
		})
	}
	return s.RecordRun(ctx, run)
}
