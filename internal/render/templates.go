package render

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"

	"github.com/roach88/callgen/internal/compiler"
	"github.com/roach88/callgen/internal/ir"
)

//go:embed templates/*.tpl
var embedded embed.FS

// Renderer executes named templates.
type Renderer interface {
	Render(name string, data any) ([]byte, error)
	Has(name string) bool
}

// TemplateRenderer is a Renderer backed by text/template.
type TemplateRenderer struct {
	root *template.Template
}

// NewTemplateRenderer parses the embedded templates, then every *.tpl file
// under overrideDir. An override file replaces the embedded template of the
// same slash-separated relative name; files under overrideDir/overrides/
// name per-operation replacements. An empty or missing overrideDir is fine.
func NewTemplateRenderer(overrideDir string) (*TemplateRenderer, error) {
	root := template.New("callgen").Funcs(funcs()).Option("missingkey=error")

	sources, err := fs.Glob(embedded, "templates/*.tpl")
	if err != nil {
		return nil, errors.Wrap(err, "listing embedded templates")
	}
	for _, src := range sources {
		data, err := embedded.ReadFile(src)
		if err != nil {
			return nil, errors.Wrapf(err, "reading embedded template %s", src)
		}
		if _, err := root.New(filepath.Base(src)).Parse(string(data)); err != nil {
			return nil, errors.Wrapf(err, "parsing embedded template %s", src)
		}
	}

	if overrideDir != "" {
		if err := parseDir(root, overrideDir); err != nil {
			return nil, err
		}
	}
	return &TemplateRenderer{root: root}, nil
}

func parseDir(root *template.Template, dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "reading template directory %s", dir)
	}
	if !info.IsDir() {
		return errors.Newf("template path %s is not a directory", dir)
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".tpl" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading template %s", path)
		}
		if _, err := root.New(filepath.ToSlash(rel)).Parse(string(data)); err != nil {
			return errors.Wrapf(err, "parsing template %s", path)
		}
		return nil
	})
}

// Has reports whether a template with the given name is defined.
func (r *TemplateRenderer) Has(name string) bool {
	return r.root.Lookup(name) != nil
}

// Render executes the named template against data.
func (r *TemplateRenderer) Render(name string, data any) ([]byte, error) {
	t := r.root.Lookup(name)
	if t == nil {
		return nil, errors.Newf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, errors.Wrapf(err, "rendering %s", name)
	}
	return buf.Bytes(), nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"join":      strings.Join,
		"include":   includeLine,
		"setter":    setterName,
		"argIndex":  argIndex,
		"writeExpr": writeExpr,
		"braceList": braceList,
		"default": func(def, v string) string {
			if v == "" {
				return def
			}
			return v
		},
	}
}

// includeLine keeps <system> includes as written and quotes everything else.
func includeLine(path string) string {
	if strings.HasPrefix(path, "<") || strings.HasPrefix(path, `"`) {
		return path
	}
	return strconv.Quote(path)
}

func setterName(fn string) string {
	if fn == "" {
		return "set"
	}
	return "set" + strings.ToUpper(fn[:1]) + fn[1:]
}

// argIndex is the index expression used to fetch an argument: the variant
// index variable for conditional arguments, the literal position otherwise.
func argIndex(a ir.Argument) string {
	if a.IsConditional() {
		return a.IndexVar
	}
	return strconv.Itoa(a.Index)
}

func writeExpr(a ir.Argument) string {
	if a.WriteMethod == "" || a.WriteMethod == compiler.WriteMethodDirect {
		return a.FunctionName + "()"
	}
	return a.WriteMethod + "(" + a.FunctionName + "())"
}

func braceList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}
