package compiler

import (
	"fmt"
	"sort"

	"github.com/roach88/callgen/internal/ir"
)

// Linker flattens parent chains into one ordered signature per operation.
// It works over an arena of normalized own arguments keyed by operation
// name; parents are looked up by name, never by reference.
type Linker struct {
	set      *ir.DeclSet
	own      map[string][]ir.Argument
	children map[string]bool
}

// NewLinker builds a linker over set. own holds each operation's normalized
// own arguments in declaration order.
func NewLinker(set *ir.DeclSet, own map[string][]ir.Argument) *Linker {
	children := make(map[string]bool)
	for _, op := range set.Operations {
		if op.Parent != "" {
			children[op.Parent] = true
		}
	}
	return &Linker{set: set, own: own, children: children}
}

// HasChildren reports whether any operation names name as its parent.
func (l *Linker) HasChildren(name string) bool {
	return l.children[name]
}

// Chain returns the arguments visible to name in root-to-leaf order:
// every ancestor's own arguments followed by name's own.
func (l *Linker) Chain(name string) []ir.Argument {
	var args []ir.Argument
	for _, opName := range ancestry(l.set, name) {
		args = append(args, l.own[opName]...)
	}
	return args
}

// Signature places every visible argument at its index for operation name
// and returns them sorted by index. A conditional argument takes the index
// keyed by name. When a descendant argument lands on an index already used
// by an ancestor, the descendant replaces it. Two arguments declared by the
// same operation landing on one index are an E101 error.
//
// A conditional argument without an entry for name is an E108 error, unless
// name is a helper_base operation, which simply omits it.
func (l *Linker) Signature(name string) ([]ir.Argument, []ValidationError) {
	op := l.set.Operations[name]
	var errs []ValidationError

	slots := make(map[int]ir.Argument)
	for _, arg := range l.Chain(name) {
		index := arg.Index
		if arg.IsConditional() {
			idx, ok := arg.Indexes[name]
			if !ok {
				if op.HelperBase {
					continue
				}
				errs = append(errs, ValidationError{
					Library:   l.set.Name,
					Operation: name,
					Field:     "signature",
					Message: fmt.Sprintf("argument %q (declared by %s) has no conditional index for %s",
						arg.Name, arg.DeclaredBy, name),
					Code: ErrMissingConditionalIndex,
				})
				continue
			}
			index = idx
		}

		if prev, taken := slots[index]; taken && prev.DeclaredBy == arg.DeclaredBy {
			errs = append(errs, ValidationError{
				Library:   l.set.Name,
				Operation: name,
				Field:     "signature",
				Message: fmt.Sprintf("arguments %q and %q (declared by %s) both land on index %d",
					prev.Name, arg.Name, arg.DeclaredBy, index),
				Code: ErrDuplicateIndex,
			})
			continue
		}

		placed := arg
		placed.Index = index
		placed.Inherited = arg.DeclaredBy != name
		slots[index] = placed
	}

	indexes := make([]int, 0, len(slots))
	for idx := range slots {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	signature := make([]ir.Argument, 0, len(indexes))
	for _, idx := range indexes {
		signature = append(signature, slots[idx])
	}
	return signature, errs
}

// Link builds the resolved Operation for name.
func (l *Linker) Link(name string, result ir.Argument) (*ir.Operation, []ValidationError) {
	decl := l.set.Operations[name]

	signature, errs := l.Signature(name)
	own := append([]ir.Argument(nil), l.own[name]...)

	op := &ir.Operation{
		Name:               name,
		ClassName:          name,
		Parent:             decl.Parent,
		ParentClass:        decl.Parent,
		Own:                own,
		Signature:          signature,
		Result:             result,
		Category:           decl.Category,
		HelperBase:         decl.HelperBase,
		HasChildren:        l.HasChildren(name),
		HasUniqueArguments: len(own) > 0,
		Comment:            decl.Comment,
	}
	if op.ParentClass == "" {
		op.ParentClass = l.set.Settings.DefaultParent
	}

	for _, arg := range own {
		if arg.Pointer && arg.Helper != nil {
			op.HasHelpers = true
		}
	}

	op.ConditionalVariants = conditionalVariants(l.Chain(name))
	op.HasConditionalIndexes = len(op.ConditionalVariants) > 0

	includes := make(map[string]bool)
	implIncludes := make(map[string]bool)
	for _, arg := range append(own, result) {
		for _, inc := range arg.Includes {
			includes[inc] = true
		}
		for _, inc := range arg.ImplIncludes {
			implIncludes[inc] = true
		}
	}
	op.Includes = sortedKeys(includes)
	op.ImplIncludes = sortedKeys(implIncludes)

	return op, errs
}

// conditionalVariants returns the sorted distinct variant names keyed by
// any conditional argument in args.
func conditionalVariants(args []ir.Argument) []string {
	variants := make(map[string]bool)
	for _, arg := range args {
		for name := range arg.Indexes {
			variants[name] = true
		}
	}
	if len(variants) == 0 {
		return nil
	}
	return sortedKeys(variants)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
