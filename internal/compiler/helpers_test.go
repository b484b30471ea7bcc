package compiler

import "github.com/roach88/callgen/internal/ir"

func idx(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func arg(name, typ string, index int) ir.ArgDecl {
	return ir.ArgDecl{Name: name, Type: typ, Index: idx(index)}
}

func declSet(name string, ops map[string]ir.OpDecl) *ir.DeclSet {
	return &ir.DeclSet{
		Name:       name,
		Settings:   ir.Settings{Namespace: name, DefaultParent: "SystemCall"},
		Types:      map[string]ir.TypeEntry{},
		Operations: ops,
	}
}

func errorCodes(errs []ValidationError) []string {
	codes := make([]string, 0, len(errs))
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	return codes
}
