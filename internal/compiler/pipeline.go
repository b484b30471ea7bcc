package compiler

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/callgen/internal/ir"
	"github.com/roach88/callgen/internal/logging"
	"github.com/roach88/callgen/internal/typemap"
)

// Result is the outcome of compiling a declaration root.
type Result struct {
	Libraries  []*ir.Library     `json:"libraries"`
	Categories ir.CategoryMap    `json:"categories"` // union across libraries
	Errors     []ValidationError `json:"errors,omitempty"`
}

// OK reports whether the model may be emitted.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Compiler runs the resolution pipeline.
type Compiler struct {
	Version string // generator version checked against settings.requires
	Logger  *zap.Logger
}

// Compile resolves decls with the current generator version.
func Compile(decls *ir.Declarations, logger *zap.Logger) (*Result, error) {
	c := &Compiler{Version: ir.GeneratorVersion, Logger: logger}
	return c.Compile(decls)
}

// Compile resolves every library in decls.
//
// Validation errors are collected across all libraries and returned in
// Result.Errors; a library with structural errors is not linked. Type
// resolution errors abort at once and are returned as error.
func (c *Compiler) Compile(decls *ir.Declarations) (*Result, error) {
	log := logging.OrNop(c.Logger)
	global := typemap.NewCatalog(decls.Types)

	result := &Result{Categories: make(ir.CategoryMap)}
	for _, set := range decls.Libraries {
		lib, errs, err := c.compileLibrary(global, set)
		if err != nil {
			return nil, errors.Wrapf(err, "library %s", set.Name)
		}
		result.Errors = append(result.Errors, errs...)
		if lib == nil {
			continue
		}
		result.Libraries = append(result.Libraries, lib)
		result.Categories.Merge(lib.Categories)

		log.Info("library compiled",
			zap.String(logging.FieldLibrary, lib.Name),
			zap.Int(logging.FieldCount, len(lib.Operations)))
	}

	SortValidationErrors(result.Errors)
	return result, nil
}

func (c *Compiler) compileLibrary(global *typemap.Catalog, set *ir.DeclSet) (*ir.Library, []ValidationError, error) {
	log := logging.OrNop(c.Logger).With(zap.String(logging.FieldLibrary, set.Name))

	settings := WithSettingsDefaults(set.Settings)
	if settings.Kind == ir.KindFunction {
		set = WithPositionalIndexes(set)
	}

	if errs := ValidateDeclSet(set, c.Version); len(errs) > 0 {
		return nil, errs, nil
	}

	catalog := global.Layer(set.Types)
	normalizer := &Normalizer{
		Catalog:           catalog,
		AllowUnknownTypes: settings.AllowUnknownTypes,
		Logger:            log,
	}

	names := set.OperationNames()
	own := make(map[string][]ir.Argument, len(names))
	results := make(map[string]ir.Argument, len(names))
	for _, name := range names {
		decl := set.Operations[name]
		siblings := visibleArguments(set, name)

		args := make([]ir.Argument, 0, len(decl.Arguments))
		for _, ad := range decl.Arguments {
			arg, err := normalizer.Normalize(ad, name, siblings)
			if err != nil {
				return nil, nil, err
			}
			args = append(args, arg)
		}
		own[name] = args

		res, err := normalizer.NormalizeResult(decl.Result, name, settings.DefaultResult)
		if err != nil {
			return nil, nil, err
		}
		results[name] = res

		log.Debug("operation normalized",
			zap.String(logging.FieldOperation, name),
			zap.Int(logging.FieldCount, len(args)))
	}

	linker := NewLinker(set, own)
	lib := &ir.Library{Name: set.Name, Settings: settings}
	var errs []ValidationError
	for _, name := range names {
		op, linkErrs := linker.Link(name, results[name])
		errs = append(errs, linkErrs...)
		lib.Operations = append(lib.Operations, op)
	}

	categories, catErrs := IndexCategories(set.Name, lib.Operations)
	errs = append(errs, catErrs...)
	lib.Categories = categories

	var all []ir.Argument
	for _, name := range names {
		all = append(all, own[name]...)
	}
	lib.ConditionalVariants = conditionalVariants(all)
	lib.HasConditionalIndexes = len(lib.ConditionalVariants) > 0

	return lib, errs, nil
}

// WithSettingsDefaults fills unset settings: kind syscall, result void.
func WithSettingsDefaults(s ir.Settings) ir.Settings {
	if s.Kind == "" {
		s.Kind = ir.KindSyscall
	}
	if s.DefaultResult == "" {
		s.DefaultResult = ir.DefaultResultType
	}
	return s
}

// WithPositionalIndexes returns a copy of set in which every argument that
// declares neither index nor conditional_indexes takes its declaration
// position. Function libraries are indexed this way; set is not modified.
func WithPositionalIndexes(set *ir.DeclSet) *ir.DeclSet {
	out := *set
	out.Operations = make(map[string]ir.OpDecl, len(set.Operations))
	for name, op := range set.Operations {
		if op.Arguments != nil {
			args := make([]ir.ArgDecl, len(op.Arguments))
			for i, arg := range op.Arguments {
				if arg.Index == nil && !arg.IsConditional() {
					pos := i
					arg.Index = &pos
				}
				args[i] = arg
			}
			op.Arguments = args
		}
		out.Operations[name] = op
	}
	return &out
}
