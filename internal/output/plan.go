package output

import (
	"path/filepath"
	"strings"

	"github.com/roach88/callgen/internal/ir"
)

// Role separates public headers from implementation sources.
type Role string

const (
	RoleHeader Role = "header"
	RoleSource Role = "source"
)

// Template names rendered for each planned file.
const (
	TemplateOperationHeader = "operation.hh.tpl"
	TemplateOperationImpl   = "operation_impl.hh.tpl"
	TemplateFunctionHeader  = "function.hh.tpl"
	TemplateFunctionSource  = "function.cc.tpl"
	TemplateLibraryHeader   = "library.hh.tpl"
	TemplateForward         = "fwd.hh.tpl"
	TemplateRegistry        = "registry.cc.tpl"
	TemplateSupportedCalls  = "supported_calls.cc.tpl"
)

// SupportedCallsFile is the global aggregate written under the source dir.
const SupportedCallsFile = "supported_calls.cc"

// File is one output the generator will produce.
type File struct {
	Path      string `json:"path"`
	Role      Role   `json:"role"`
	Template  string `json:"template"`
	Override  string `json:"override,omitempty"` // per-operation template that replaces Template when present
	Library   string `json:"library,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// Layout maps libraries and operations to output paths.
type Layout struct {
	HeaderDir string
	SourceDir string
}

// OperationFiles returns the files generated for one operation.
func (l Layout) OperationFiles(library, kind, operation string) []File {
	hdr := File{
		Role:      RoleHeader,
		Override:  "overrides/" + operation + ".hh.tpl",
		Library:   library,
		Operation: operation,
	}
	src := File{
		Role:      RoleSource,
		Override:  "overrides/" + operation + "Impl.hh.tpl",
		Library:   library,
		Operation: operation,
	}

	if kind == ir.KindFunction {
		hdr.Path = filepath.Join(l.HeaderDir, library, "functions", operation+".hh")
		hdr.Template = TemplateFunctionHeader
		src.Path = filepath.Join(l.SourceDir, library, "functions", operation+".cc")
		src.Template = TemplateFunctionSource
		return []File{hdr, src}
	}

	hdr.Path = filepath.Join(l.HeaderDir, library, operation+".hh")
	hdr.Template = TemplateOperationHeader
	src.Path = filepath.Join(l.SourceDir, library, operation+"Impl.hh")
	src.Template = TemplateOperationImpl
	return []File{hdr, src}
}

// LibraryFiles returns the per-library aggregates.
func (l Layout) LibraryFiles(library string) []File {
	return []File{
		{Path: filepath.Join(l.HeaderDir, library, library+".hh"), Role: RoleHeader, Template: TemplateLibraryHeader, Library: library},
		{Path: filepath.Join(l.HeaderDir, library, "fwd.hh"), Role: RoleHeader, Template: TemplateForward, Library: library},
		{Path: filepath.Join(l.SourceDir, library, "registry.cc"), Role: RoleSource, Template: TemplateRegistry, Library: library},
	}
}

// GlobalFiles returns the aggregates spanning every library.
func (l Layout) GlobalFiles() []File {
	return []File{
		{Path: filepath.Join(l.SourceDir, SupportedCallsFile), Role: RoleSource, Template: TemplateSupportedCalls},
	}
}

// Plan lists every file for decls: per library its aggregates then its
// operations by name, libraries in load order, then the global aggregates.
// It needs only names and kinds, so it runs without compiling.
func (l Layout) Plan(decls *ir.Declarations) []File {
	var files []File
	for _, set := range decls.Libraries {
		files = append(files, l.LibraryFiles(set.Name)...)
		kind := set.Settings.Kind
		for _, name := range set.OperationNames() {
			files = append(files, l.OperationFiles(set.Name, kind, name)...)
		}
	}
	return append(files, l.GlobalFiles()...)
}

// Paths lists the paths of files, keeping headers, sources or both.
func Paths(files []File, headers, sources bool) []string {
	paths := []string{}
	for _, f := range files {
		if (f.Role == RoleHeader && headers) || (f.Role == RoleSource && sources) {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// JoinPaths renders Paths as a semicolon-separated list.
func JoinPaths(files []File, headers, sources bool) string {
	return strings.Join(Paths(files, headers, sources), ";")
}
