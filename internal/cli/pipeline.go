package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/callgen/internal/compiler"
	"github.com/roach88/callgen/internal/ir"
	"github.com/roach88/callgen/internal/loader"
	"github.com/roach88/callgen/internal/typemap"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Libraries  int                        `json:"libraries"`
	Operations int                        `json:"operations"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
}

// loadRoot reads a declaration root. Load failures are reported and
// returned as command errors.
func loadRoot(out *OutputFormatter, root string, logger *zap.Logger) (*ir.Declarations, error) {
	decls, err := loader.Load(root, logger)
	if err == nil {
		out.VerboseLog("Loaded %d library(ies) from %s", len(decls.Libraries), root)
		return decls, nil
	}

	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		var details any
		if loadErr.File != "" {
			details = map[string]string{"file": loadErr.File}
		}
		_ = out.Error(loadErr.Code, loadErr.Error(), details)
		return nil, WrapExitError(ExitCommandError, "load failed", err)
	}
	_ = out.Error(loader.ErrCodeGeneric, err.Error(), nil)
	return nil, WrapExitError(ExitCommandError, "load failed", err)
}

// compileDecls resolves decls. Type resolution failures and validation
// errors are reported and returned as validation failures.
func compileDecls(out *OutputFormatter, decls *ir.Declarations, logger *zap.Logger) (*compiler.Result, error) {
	c := &compiler.Compiler{Version: ir.GeneratorVersion, Logger: logger}
	result, err := c.Compile(decls)
	if err != nil {
		var re *typemap.ResolutionError
		if errors.As(err, &re) {
			_ = out.Error(re.Code, err.Error(), re.Chain)
			return nil, WrapExitError(ExitFailure, "type resolution failed", err)
		}
		_ = out.Error(loader.ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "compile failed", err)
	}
	if !result.OK() {
		return result, outputValidationErrors(out, result.Errors)
	}
	return result, nil
}

func countOperations(libs []*ir.Library) int {
	n := 0
	for _, lib := range libs {
		n += len(lib.Operations)
	}
	return n
}

// outputValidationErrors reports every validation error and returns the
// validation failure exit error.
func outputValidationErrors(out *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if out.JSON() {
		if err := out.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return failure
	}

	out.Cross("Validation failed")
	fmt.Fprintln(out.Writer)
	for _, err := range errs {
		fmt.Fprintf(out.Writer, "  %s\n", err.Error())
	}
	return failure
}
