package ir

import "sort"

// Output layout kinds selected by Settings.Kind.
const (
	KindSyscall  = "syscall"  // public header + implementation header
	KindFunction = "function" // public header + source file
)

// DefaultResultType is used when neither the operation nor the settings name a result.
const DefaultResultType = "void"

// TypeEntry is one row of a typemap: generation attributes for a type name.
type TypeEntry struct {
	Redirect               string   `json:"redirect,omitempty" yaml:"redirect,omitempty" toml:"redirect,omitempty"`
	Extends                string   `json:"extends,omitempty" yaml:"extends,omitempty" toml:"extends,omitempty"`
	Type                   string   `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	RawType                string   `json:"rawType,omitempty" yaml:"rawType,omitempty" toml:"rawType,omitempty"`
	WriteMethod            string   `json:"writeMethod,omitempty" yaml:"writeMethod,omitempty" toml:"writeMethod,omitempty"`
	WriteBase              string   `json:"writeBase,omitempty" yaml:"writeBase,omitempty" toml:"writeBase,omitempty"`
	ImplType               string   `json:"impl_type,omitempty" yaml:"impl_type,omitempty" toml:"impl_type,omitempty"`
	Includes               []string `json:"includes,omitempty" yaml:"includes,omitempty" toml:"includes,omitempty"`
	ImplIncludes           []string `json:"impl_includes,omitempty" yaml:"impl_includes,omitempty" toml:"impl_includes,omitempty"`
	Helper                 *Helper  `json:"helper,omitempty" yaml:"helper,omitempty" toml:"helper,omitempty"`
	UseAddressForInjection *bool    `json:"use_address_for_injection,omitempty" yaml:"use_address_for_injection,omitempty" toml:"use_address_for_injection,omitempty"`
}

// Clone returns a deep copy so callers can modify the result freely.
func (e TypeEntry) Clone() TypeEntry {
	out := e
	out.Includes = cloneStrings(e.Includes)
	out.ImplIncludes = cloneStrings(e.ImplIncludes)
	if e.Helper != nil {
		h := e.Helper.Clone()
		out.Helper = &h
	}
	if e.UseAddressForInjection != nil {
		v := *e.UseAddressForInjection
		out.UseAddressForInjection = &v
	}
	return out
}

// Helper declares how to call an auxiliary accessor for a pointer argument.
// Arguments is an ordered list of symbolic tokens (kernel, pointer, value,
// size_arg, type_arg) or literals.
type Helper struct {
	Name      string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"`
	Arguments []string `json:"arguments,omitempty" yaml:"arguments,omitempty" toml:"arguments,omitempty"`
}

// Clone returns a deep copy of the helper.
func (h Helper) Clone() Helper {
	out := h
	out.Arguments = cloneStrings(h.Arguments)
	return out
}

// CondIndex is one entry of an argument's conditional_indexes list.
type CondIndex struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Index int    `json:"index" yaml:"index" toml:"index"`
}

// ArgDecl is an argument as written in a declaration file.
type ArgDecl struct {
	Name               string      `json:"name" yaml:"name" toml:"name"`
	Type               string      `json:"type" yaml:"type" toml:"type"`
	Index              *int        `json:"index,omitempty" yaml:"index,omitempty" toml:"index,omitempty"`
	ConditionalIndexes []CondIndex `json:"conditional_indexes,omitempty" yaml:"conditional_indexes,omitempty" toml:"conditional_indexes,omitempty"`
	In                 *bool       `json:"in,omitempty" yaml:"in,omitempty" toml:"in,omitempty"`
	Out                *bool       `json:"out,omitempty" yaml:"out,omitempty" toml:"out,omitempty"`
	Pointer            bool        `json:"pointer,omitempty" yaml:"pointer,omitempty" toml:"pointer,omitempty"`
	SizeArg            *string     `json:"size_arg,omitempty" yaml:"size_arg,omitempty" toml:"size_arg,omitempty"`
	SizeArgs           []string    `json:"size_args,omitempty" yaml:"size_args,omitempty" toml:"size_args,omitempty"`
	TypeArg            string      `json:"type_arg,omitempty" yaml:"type_arg,omitempty" toml:"type_arg,omitempty"`
	RequireSuccess     *bool       `json:"require_success,omitempty" yaml:"require_success,omitempty" toml:"require_success,omitempty"`
	AllowPartial       *bool       `json:"allow_partial,omitempty" yaml:"allow_partial,omitempty" toml:"allow_partial,omitempty"`
	RawType            string      `json:"rawType,omitempty" yaml:"rawType,omitempty" toml:"rawType,omitempty"`
	WriteMethod        string      `json:"writeMethod,omitempty" yaml:"writeMethod,omitempty" toml:"writeMethod,omitempty"`
	WriteBase          string      `json:"writeBase,omitempty" yaml:"writeBase,omitempty" toml:"writeBase,omitempty"`
	Helper             *Helper     `json:"helper,omitempty" yaml:"helper,omitempty" toml:"helper,omitempty"`
	Comment            string      `json:"comment,omitempty" yaml:"comment,omitempty" toml:"comment,omitempty"`
}

// IsConditional reports whether the argument position depends on the variant.
func (a ArgDecl) IsConditional() bool {
	return len(a.ConditionalIndexes) > 0
}

// ConditionalMap returns the conditional_indexes list keyed by variant name.
func (a ArgDecl) ConditionalMap() map[string]int {
	if len(a.ConditionalIndexes) == 0 {
		return nil
	}
	m := make(map[string]int, len(a.ConditionalIndexes))
	for _, c := range a.ConditionalIndexes {
		m[c.Name] = c.Index
	}
	return m
}

// OpDecl is an operation (system call or library function) as declared.
// A nil Arguments slice means the operation declares no arguments of its own.
type OpDecl struct {
	Parent     string    `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty"`
	Arguments  []ArgDecl `json:"arguments,omitempty" yaml:"arguments,omitempty" toml:"arguments,omitempty"`
	Result     *ArgDecl  `json:"result,omitempty" yaml:"result,omitempty" toml:"result,omitempty"`
	Category   string    `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	HelperBase bool      `json:"helper_base,omitempty" yaml:"helper_base,omitempty" toml:"helper_base,omitempty"`
	Comment    string    `json:"comment,omitempty" yaml:"comment,omitempty" toml:"comment,omitempty"`
}

// Settings is the generation-wide settings record of one declaration set.
// Values keeps every key of the record so templates can see custom constants.
type Settings struct {
	Namespace         string         `json:"namespace"`
	Kind              string         `json:"kind"`
	DefaultParent     string         `json:"default_parent"`
	DefaultResult     string         `json:"default_result"`
	Requires          string         `json:"requires,omitempty"`
	AllowUnknownTypes bool           `json:"allow_unknown_types,omitempty"`
	Values            map[string]any `json:"values,omitempty"`
}

// DeclSet is one library's complete declaration set.
type DeclSet struct {
	Name       string               `json:"name"`
	Settings   Settings             `json:"settings"`
	Types      map[string]TypeEntry `json:"types"`
	Operations map[string]OpDecl    `json:"operations"`
	Files      []string             `json:"files,omitempty"`
}

// OperationNames returns the declared operation names in sorted order.
func (d *DeclSet) OperationNames() []string {
	names := make([]string, 0, len(d.Operations))
	for name := range d.Operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declarations is everything loaded from one declaration root.
type Declarations struct {
	Root      string               `json:"root"`
	Types     map[string]TypeEntry `json:"types"`
	Libraries []*DeclSet           `json:"libraries"`
}

// HelperCall is a resolved helper invocation for a pointer argument.
type HelperCall struct {
	Name      string   `json:"name,omitempty"`
	Mode      string   `json:"mode"`
	Type      string   `json:"type"`
	RawType   string   `json:"raw_type"`
	Arguments []string `json:"arguments"`
}

// Argument is a fully normalized argument.
type Argument struct {
	Name                   string         `json:"name"`
	Type                   string         `json:"type"`
	OriginalType           string         `json:"original_type"`
	Index                  int            `json:"index"`
	Indexes                map[string]int `json:"indexes,omitempty"`
	IndexVar               string         `json:"index_var"`
	In                     bool           `json:"in"`
	Out                    bool           `json:"out"`
	Pointer                bool           `json:"pointer"`
	RequireSuccess         bool           `json:"require_success"`
	AllowPartial           bool           `json:"allow_partial"`
	RawType                string         `json:"raw_type"`
	WriteMethod            string         `json:"write_method"`
	WriteBase              string         `json:"write_base"`
	ImplType               string         `json:"impl_type,omitempty"`
	FunctionName           string         `json:"function_name"`
	VariableName           string         `json:"variable_name"`
	Includes               []string       `json:"includes,omitempty"`
	ImplIncludes           []string       `json:"impl_includes,omitempty"`
	Helper                 *HelperCall    `json:"helper,omitempty"`
	SizeArg                string         `json:"size_arg,omitempty"`
	SizeArgs               []string       `json:"size_args,omitempty"`
	TypeArg                string         `json:"type_arg,omitempty"`
	UseAddressForInjection bool           `json:"use_address_for_injection,omitempty"`
	ResultParameter        bool           `json:"result_parameter,omitempty"`
	Inherited              bool           `json:"inherited,omitempty"`
	DeclaredBy             string         `json:"declared_by"`
	Comment                string         `json:"comment,omitempty"`
}

// IsConditional reports whether the argument carries per-variant indexes.
func (a Argument) IsConditional() bool {
	return len(a.Indexes) > 0
}

// Operation is a fully resolved operation ready for rendering.
type Operation struct {
	Name                  string     `json:"name"`
	ClassName             string     `json:"class_name"`
	Parent                string     `json:"parent,omitempty"`
	ParentClass           string     `json:"parent_class"`
	Own                   []Argument `json:"own"`
	Signature             []Argument `json:"signature"`
	Result                Argument   `json:"result"`
	Category              string     `json:"category,omitempty"`
	HelperBase            bool       `json:"helper_base"`
	HasChildren           bool       `json:"has_children"`
	HasHelpers            bool       `json:"has_helpers"`
	HasUniqueArguments    bool       `json:"has_unique_arguments"`
	HasConditionalIndexes bool       `json:"has_conditional_indexes"`
	ConditionalVariants   []string   `json:"conditional_variants,omitempty"`
	Includes              []string   `json:"includes"`
	ImplIncludes          []string   `json:"impl_includes"`
	Comment               string     `json:"comment,omitempty"`
}

// CategoryMap maps a category name to its sorted member operation names.
type CategoryMap map[string][]string

// Names returns the category names in sorted order.
func (c CategoryMap) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add inserts an operation into a category, keeping members sorted and unique.
func (c CategoryMap) Add(category, operation string) {
	members := c[category]
	i := sort.SearchStrings(members, operation)
	if i < len(members) && members[i] == operation {
		return
	}
	members = append(members, "")
	copy(members[i+1:], members[i:])
	members[i] = operation
	c[category] = members
}

// Merge folds other into c.
func (c CategoryMap) Merge(other CategoryMap) {
	for category, members := range other {
		for _, m := range members {
			c.Add(category, m)
		}
	}
}

// Library is one resolved declaration set.
type Library struct {
	Name                  string       `json:"name"`
	Settings              Settings     `json:"settings"`
	Operations            []*Operation `json:"operations"`
	Categories            CategoryMap  `json:"categories"`
	HasConditionalIndexes bool         `json:"has_conditional_indexes"`
	ConditionalVariants   []string     `json:"conditional_variants,omitempty"`
}

// Operation returns the named operation, or nil.
func (l *Library) Operation(name string) *Operation {
	i := sort.Search(len(l.Operations), func(i int) bool {
		return l.Operations[i].Name >= name
	})
	if i < len(l.Operations) && l.Operations[i].Name == name {
		return l.Operations[i]
	}
	return nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
