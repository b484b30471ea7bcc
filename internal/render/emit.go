package render

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/callgen/internal/ir"
	"github.com/roach88/callgen/internal/logging"
	"github.com/roach88/callgen/internal/output"
)

// OperationContext is the data passed to per-operation templates.
type OperationContext struct {
	Version   string
	Namespace string
	Values    map[string]any
	Library   *ir.Library
	Operation *ir.Operation
}

// LibraryContext is the data passed to per-library aggregate templates.
type LibraryContext struct {
	Version   string
	Namespace string
	Values    map[string]any
	Library   *ir.Library
}

// GlobalContext is the data passed to templates spanning every library.
type GlobalContext struct {
	Version    string
	Libraries  []*ir.Library
	Categories ir.CategoryMap
}

// Rendered is a file whose content is ready to be written.
type Rendered struct {
	output.File
	Content []byte
}

// Emitted records what writing one file did.
type Emitted struct {
	output.File
	Outcome     output.Outcome `json:"outcome"`
	Fingerprint string         `json:"fingerprint"`
}

// Emitter renders libraries through templates and writes the results.
type Emitter struct {
	Renderer  Renderer
	Formatter Formatter
	Writer    *output.Writer
	Layout    output.Layout
	Version   string
	Logger    *zap.Logger
}

// NewEmitter returns an emitter with a pass-through formatter and the
// current generator version.
func NewEmitter(r Renderer, w *output.Writer, layout output.Layout, logger *zap.Logger) *Emitter {
	return &Emitter{
		Renderer:  r,
		Formatter: NopFormatter{},
		Writer:    w,
		Layout:    layout,
		Version:   ir.GeneratorVersion,
		Logger:    logger,
	}
}

// Emit renders every file for libs plus the global aggregates, then writes
// them. Nothing is written if any file fails to render.
func (e *Emitter) Emit(ctx context.Context, libs []*ir.Library, categories ir.CategoryMap) ([]Emitted, error) {
	var rendered []Rendered
	for _, lib := range libs {
		files, err := e.RenderLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, files...)
	}
	global, err := e.RenderGlobal(ctx, libs, categories)
	if err != nil {
		return nil, err
	}
	rendered = append(rendered, global...)
	return e.WriteAll(rendered)
}

// EmitLibrary renders and writes the files of a single library.
func (e *Emitter) EmitLibrary(ctx context.Context, lib *ir.Library) ([]Emitted, error) {
	rendered, err := e.RenderLibrary(ctx, lib)
	if err != nil {
		return nil, err
	}
	return e.WriteAll(rendered)
}

// RenderLibrary renders the aggregates and operation files of lib in plan
// order.
func (e *Emitter) RenderLibrary(ctx context.Context, lib *ir.Library) ([]Rendered, error) {
	libCtx := LibraryContext{
		Version:   e.version(),
		Namespace: lib.Settings.Namespace,
		Values:    lib.Settings.Values,
		Library:   lib,
	}

	var out []Rendered
	for _, f := range e.Layout.LibraryFiles(lib.Name) {
		r, err := e.render(ctx, f, libCtx)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}

	for _, op := range lib.Operations {
		opCtx := OperationContext{
			Version:   libCtx.Version,
			Namespace: libCtx.Namespace,
			Values:    libCtx.Values,
			Library:   lib,
			Operation: op,
		}
		for _, f := range e.Layout.OperationFiles(lib.Name, lib.Settings.Kind, op.Name) {
			r, err := e.render(ctx, f, opCtx)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// RenderGlobal renders the files that aggregate every library.
func (e *Emitter) RenderGlobal(ctx context.Context, libs []*ir.Library, categories ir.CategoryMap) ([]Rendered, error) {
	if categories == nil {
		categories = ir.CategoryMap{}
	}
	data := GlobalContext{Version: e.version(), Libraries: libs, Categories: categories}

	var out []Rendered
	for _, f := range e.Layout.GlobalFiles() {
		r, err := e.render(ctx, f, data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// WriteAll writes rendered files in order and reports each outcome.
func (e *Emitter) WriteAll(files []Rendered) ([]Emitted, error) {
	log := logging.OrNop(e.Logger)
	out := make([]Emitted, 0, len(files))
	for _, f := range files {
		outcome, err := e.Writer.Write(f.Path, f.Content)
		if err != nil {
			return out, err
		}
		if outcome != output.Unchanged {
			log.Info("wrote file",
				zap.String(logging.FieldPath, f.Path),
				zap.String(logging.FieldOutcome, string(outcome)))
		}
		out = append(out, Emitted{
			File:        f.File,
			Outcome:     outcome,
			Fingerprint: ir.ContentFingerprint(f.Content),
		})
	}
	return out, nil
}

func (e *Emitter) render(ctx context.Context, f output.File, data any) (Rendered, error) {
	name := f.Template
	if f.Override != "" && e.Renderer.Has(f.Override) {
		name = f.Override
		f.Template = f.Override
	}

	logging.OrNop(e.Logger).Debug("rendering",
		zap.String(logging.FieldPath, f.Path),
		zap.String(logging.FieldTemplate, name))

	src, err := e.Renderer.Render(name, data)
	if err != nil {
		return Rendered{}, errors.Wrapf(err, "rendering %s", f.Path)
	}

	formatter := e.Formatter
	if formatter == nil {
		formatter = NopFormatter{}
	}
	formatted, err := formatter.Format(ctx, f.Path, src)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{File: f, Content: formatted}, nil
}

func (e *Emitter) version() string {
	if e.Version == "" {
		return ir.GeneratorVersion
	}
	return e.Version
}
