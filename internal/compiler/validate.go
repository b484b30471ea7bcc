package compiler

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/roach88/callgen/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Argument declaration errors (E101-E103)
	ErrDuplicateIndex      = "E101" // two own arguments share a fixed index
	ErrIndexAndConditional = "E102" // argument declares both index and conditional_indexes
	ErrMissingIndex        = "E103" // argument declares neither index nor conditional_indexes

	// Operation structure errors (E104-E109)
	ErrMissingCategory         = "E104" // concrete operation without a category
	ErrEmptyOperation          = "E105" // no arguments and no parent
	ErrUnknownParent           = "E106" // parent not declared in the same set
	ErrParentCycle             = "E107" // parent chain loops
	ErrMissingConditionalIndex = "E108" // conditional argument has no entry for a concrete operation
	ErrUnknownSibling          = "E109" // size_arg/size_args/type_arg names no argument

	// Library settings errors (E110-E119)
	ErrUnsatisfiedVersion = "E110" // settings.requires excludes this generator
	ErrInvalidKind        = "E111" // settings.kind is not syscall or function
)

// ValidationError represents a declaration error.
type ValidationError struct {
	Library   string `json:"library,omitempty"`
	Operation string `json:"operation,omitempty"`
	Field     string `json:"field"`
	Message   string `json:"message"`
	Code      string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	switch {
	case e.Operation != "":
		return fmt.Sprintf("[%s] %s.%s: %s: %s", e.Code, e.Library, e.Operation, e.Field, e.Message)
	case e.Library != "":
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Library, e.Field, e.Message)
	default:
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
}

// ValidateDeclSet checks a declaration set for structural errors.
// Returns all errors found (does not fail-fast), ordered by operation name.
// Category membership is checked separately by IndexCategories.
func ValidateDeclSet(set *ir.DeclSet, version string) []ValidationError {
	var errs []ValidationError

	errs = append(errs, validateSettings(set, version)...)

	for _, name := range set.OperationNames() {
		op := set.Operations[name]
		errs = append(errs, validateOperation(set, name, op)...)
	}

	errs = append(errs, AnalyzeParents(set)...)
	return errs
}

func validateSettings(set *ir.DeclSet, version string) []ValidationError {
	var errs []ValidationError
	s := set.Settings

	// E111: kind must select a known layout
	if s.Kind != "" && s.Kind != ir.KindSyscall && s.Kind != ir.KindFunction {
		errs = append(errs, ValidationError{
			Library: set.Name,
			Field:   "settings.kind",
			Message: fmt.Sprintf("invalid kind %q, must be %q or %q", s.Kind, ir.KindSyscall, ir.KindFunction),
			Code:    ErrInvalidKind,
		})
	}

	// E110: requires constraint must admit this generator
	if s.Requires != "" {
		if msg := checkRequires(s.Requires, version); msg != "" {
			errs = append(errs, ValidationError{
				Library: set.Name,
				Field:   "settings.requires",
				Message: msg,
				Code:    ErrUnsatisfiedVersion,
			})
		}
	}

	return errs
}

// checkRequires returns a non-empty message when version does not satisfy
// the constraint.
func checkRequires(constraint, version string) string {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Sprintf("invalid constraint %q: %v", constraint, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Sprintf("invalid generator version %q: %v", version, err)
	}
	if ok, reasons := c.Validate(v); !ok {
		msg := fmt.Sprintf("generator %s does not satisfy %q", v, constraint)
		if len(reasons) > 0 {
			msg += ": " + reasons[0].Error()
		}
		return msg
	}
	return ""
}

func validateOperation(set *ir.DeclSet, name string, op ir.OpDecl) []ValidationError {
	var errs []ValidationError
	newErr := func(field, code, msg string) ValidationError {
		return ValidationError{Library: set.Name, Operation: name, Field: field, Message: msg, Code: code}
	}

	// E105: nothing to generate from
	if op.Arguments == nil && op.Parent == "" {
		errs = append(errs, newErr("arguments", ErrEmptyOperation,
			"operation declares no arguments and has no parent to inherit from"))
	}

	// E106: parent must be declared in the same set
	if op.Parent != "" {
		if _, ok := set.Operations[op.Parent]; !ok {
			errs = append(errs, newErr("parent", ErrUnknownParent,
				fmt.Sprintf("unknown parent operation %q", op.Parent)))
		}
	}

	indexes := make(map[int]string)
	for i, arg := range op.Arguments {
		field := fmt.Sprintf("arguments[%d]", i)

		switch {
		case arg.IsConditional() && arg.Index != nil:
			// E102
			errs = append(errs, newErr(field, ErrIndexAndConditional,
				fmt.Sprintf("argument %q declares both index and conditional_indexes", arg.Name)))
		case arg.IsConditional():
		case arg.Index == nil:
			// E103
			errs = append(errs, newErr(field, ErrMissingIndex,
				fmt.Sprintf("argument %q declares neither index nor conditional_indexes", arg.Name)))
		default:
			// E101
			if prev, dup := indexes[*arg.Index]; dup {
				errs = append(errs, newErr(field+".index", ErrDuplicateIndex,
					fmt.Sprintf("duplicate argument index %d (%q and %q)", *arg.Index, prev, arg.Name)))
			} else {
				indexes[*arg.Index] = arg.Name
			}
		}
	}

	// E109: sibling references resolve against this operation and its ancestors
	visible := visibleArguments(set, name)
	for i, arg := range op.Arguments {
		field := fmt.Sprintf("arguments[%d]", i)
		for _, ref := range siblingRefs(arg) {
			if _, ok := visible[ref.name]; !ok {
				errs = append(errs, newErr(field+"."+ref.field, ErrUnknownSibling,
					fmt.Sprintf("argument %q refers to unknown argument %q", arg.Name, ref.name)))
			}
		}
	}

	return errs
}

type siblingRef struct {
	field string
	name  string
}

func siblingRefs(arg ir.ArgDecl) []siblingRef {
	var refs []siblingRef
	if arg.SizeArg != nil && *arg.SizeArg != "" {
		refs = append(refs, siblingRef{"size_arg", *arg.SizeArg})
	}
	for _, s := range arg.SizeArgs {
		refs = append(refs, siblingRef{"size_args", s})
	}
	if arg.TypeArg != "" {
		refs = append(refs, siblingRef{"type_arg", arg.TypeArg})
	}
	return refs
}

// visibleArguments returns the argument declarations an operation can see:
// its own plus those of every ancestor. Descendants shadow ancestors.
// Unknown parents and cycles end the walk early; they are reported elsewhere.
func visibleArguments(set *ir.DeclSet, name string) map[string]ir.ArgDecl {
	chain := ancestry(set, name)
	visible := make(map[string]ir.ArgDecl)
	for _, opName := range chain {
		for _, arg := range set.Operations[opName].Arguments {
			visible[arg.Name] = arg
		}
	}
	return visible
}

// ancestry returns the parent chain of name in root-to-leaf order, ending
// with name itself. The walk stops at an unknown parent or a repeated name.
func ancestry(set *ir.DeclSet, name string) []string {
	var chain []string
	seen := make(map[string]bool)
	for current := name; current != ""; {
		op, ok := set.Operations[current]
		if !ok || seen[current] {
			break
		}
		seen[current] = true
		chain = append(chain, current)
		current = op.Parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// SortValidationErrors orders errors by library, operation, field and code.
func SortValidationErrors(errs []ValidationError) {
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.Library != b.Library {
			return a.Library < b.Library
		}
		if a.Operation != b.Operation {
			return a.Operation < b.Operation
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Code < b.Code
	})
}
