package compiler

import (
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/callgen/internal/ir"
	"github.com/roach88/callgen/internal/logging"
	"github.com/roach88/callgen/internal/typemap"
)

// Defaults applied when neither the argument nor its type entry set a value.
const (
	DefaultWriteBase     = "dec"
	WriteMethodPointer   = "write"
	WriteMethodDirect    = "direct"
	DefaultHelperMode    = "direct"
	CanonicalSizeRawType = "uint64_t"

	// Sentinel used in size_args expressions for an absent pointer sibling.
	unboundedSize = "0xFFFFFFFFFFFFFFFFLL"
)

// DefaultHelperArguments is the token list used when a helper declares none.
var DefaultHelperArguments = []string{"kernel", "pointer"}

var sizeRawTypes = map[string]bool{
	"size_t":      true,
	"SIZE_T":      true,
	"std::size_t": true,
}

// Normalizer turns argument declarations into fully populated Arguments.
type Normalizer struct {
	Catalog           *typemap.Catalog
	AllowUnknownTypes bool
	Logger            *zap.Logger
}

// Normalize resolves decl's type and fills every derived field. owner is the
// declaring operation; siblings are the argument declarations visible to it,
// used to decide how size_args expressions guard pointer siblings.
func (n *Normalizer) Normalize(decl ir.ArgDecl, owner string, siblings map[string]ir.ArgDecl) (ir.Argument, error) {
	log := logging.OrNop(n.Logger)

	arg := ir.Argument{
		Name:         decl.Name,
		Type:         decl.Type,
		OriginalType: decl.Type,
		Indexes:      decl.ConditionalMap(),
		Pointer:      decl.Pointer,
		SizeArgs:     append([]string(nil), decl.SizeArgs...),
		TypeArg:      decl.TypeArg,
		DeclaredBy:   owner,
		Comment:      decl.Comment,
	}
	if decl.Index != nil {
		arg.Index = *decl.Index
	}
	if decl.SizeArg != nil {
		arg.SizeArg = *decl.SizeArg
	}

	entry, canonical, err := n.lookup(decl.Type)
	if err != nil {
		return ir.Argument{}, errors.Wrapf(err, "%s: argument %q", owner, decl.Name)
	}
	if entry != nil {
		arg.Type = canonical
	} else {
		log.Debug("type not in typemap, using declared type",
			zap.String(logging.FieldOperation, owner),
			zap.String(logging.FieldArgument, decl.Name),
			zap.String(logging.FieldType, decl.Type))
		entry = &ir.TypeEntry{}
	}

	applyTypeEntry(&arg, decl, *entry)
	applyDefaults(&arg, decl)

	helper := decl.Helper
	if helper == nil {
		helper = entry.Helper
	}
	if arg.Pointer && helper != nil {
		arg.Helper = buildHelperCall(arg, *helper, *entry, siblings)
	}

	return arg, nil
}

// NormalizeResult normalizes an operation's result as an out-only argument
// named "result". An unresolvable result type is logged and treated as
// having no typemap attributes.
func (n *Normalizer) NormalizeResult(decl *ir.ArgDecl, owner, defaultType string) (ir.Argument, error) {
	log := logging.OrNop(n.Logger)

	d := ir.ArgDecl{Type: defaultType}
	if decl != nil {
		d = *decl
		if d.Type == "" {
			d.Type = defaultType
		}
	}
	d.Name = "result"
	d.In = boolPtr(false)
	d.Out = boolPtr(true)
	d.Index = nil
	d.ConditionalIndexes = nil

	lenient := *n
	lenient.AllowUnknownTypes = true
	if d.Type != ir.DefaultResultType && !n.Catalog.Has(d.Type) {
		log.Warn("result type not in typemap, skipping its includes",
			zap.String(logging.FieldOperation, owner),
			zap.String(logging.FieldType, d.Type))
	}

	arg, err := lenient.Normalize(d, owner, nil)
	if err != nil {
		return ir.Argument{}, err
	}
	arg.ResultParameter = true
	return arg, nil
}

// lookup resolves a type name to its entry and canonical post-redirect name.
// It returns a nil entry for an unknown type when unknown types are allowed.
func (n *Normalizer) lookup(name string) (*ir.TypeEntry, string, error) {
	entry, canonical, err := n.Catalog.Resolve(name)
	if err == nil {
		return &entry, canonical, nil
	}
	var re *typemap.ResolutionError
	if errors.As(err, &re) && re.Code == typemap.ErrUnknownType && re.Type == name && n.AllowUnknownTypes {
		return nil, name, nil
	}
	return nil, "", err
}

// applyTypeEntry copies typemap attributes onto arg. An entry-level type
// replaces the canonical name; the argument's own rawType, writeMethod and
// writeBase win over the entry's.
func applyTypeEntry(arg *ir.Argument, decl ir.ArgDecl, entry ir.TypeEntry) {
	if entry.Type != "" {
		arg.Type = entry.Type
	}
	if entry.UseAddressForInjection != nil {
		arg.UseAddressForInjection = *entry.UseAddressForInjection
	}
	arg.Includes = append([]string(nil), entry.Includes...)
	arg.ImplIncludes = append([]string(nil), entry.ImplIncludes...)
	arg.ImplType = entry.ImplType

	arg.RawType = firstNonEmpty(decl.RawType, entry.RawType)
	arg.WriteMethod = firstNonEmpty(decl.WriteMethod, entry.WriteMethod)
	arg.WriteBase = firstNonEmpty(decl.WriteBase, entry.WriteBase)
}

func applyDefaults(arg *ir.Argument, decl ir.ArgDecl) {
	if arg.Pointer {
		arg.FunctionName = arg.Name + "Ptr"
		arg.VariableName = "p" + arg.Name
	} else {
		arg.FunctionName = arg.Name
		arg.VariableName = arg.Name
	}
	arg.IndexVar = arg.VariableName + "Idx_"

	if arg.RawType == "" {
		arg.RawType = arg.Type
	}
	if sizeRawTypes[arg.RawType] {
		arg.RawType = CanonicalSizeRawType
	}
	if arg.WriteBase == "" {
		arg.WriteBase = DefaultWriteBase
	}
	if arg.WriteMethod == "" {
		if arg.Pointer {
			arg.WriteMethod = WriteMethodPointer
		} else {
			arg.WriteMethod = WriteMethodDirect
		}
	}

	switch {
	case decl.In != nil && decl.Out != nil:
		arg.In, arg.Out = *decl.In, *decl.Out
	case decl.Out != nil:
		arg.Out, arg.In = *decl.Out, !*decl.Out
	case decl.In != nil:
		arg.In, arg.Out = *decl.In, !*decl.In
	default:
		arg.In, arg.Out = true, false
	}

	arg.RequireSuccess = !arg.In
	if decl.RequireSuccess != nil {
		arg.RequireSuccess = *decl.RequireSuccess
	}
	if decl.AllowPartial != nil {
		arg.AllowPartial = *decl.AllowPartial
	}
}

func buildHelperCall(arg ir.Argument, helper ir.Helper, entry ir.TypeEntry, siblings map[string]ir.ArgDecl) *ir.HelperCall {
	call := &ir.HelperCall{
		Name:    helper.Name,
		Mode:    firstNonEmpty(helper.Mode, DefaultHelperMode),
		Type:    arg.Type,
		RawType: firstNonEmpty(entry.RawType, arg.Type),
	}

	tokens := helper.Arguments
	if len(tokens) == 0 {
		tokens = DefaultHelperArguments
	}
	call.Arguments = make([]string, 0, len(tokens))
	for _, token := range tokens {
		if expr, ok := substituteToken(arg, token, siblings); ok {
			call.Arguments = append(call.Arguments, expr)
		}
	}
	return call
}

// substituteToken expands one symbolic helper token into a call-site
// expression. ok is false when the token expands to nothing.
func substituteToken(arg ir.Argument, token string, siblings map[string]ir.ArgDecl) (string, bool) {
	switch token {
	case "kernel":
		return "this->kernel()", true
	case "pointer":
		return arg.FunctionName + "()", true
	case "value":
		return "*(" + arg.Name + "_)", true
	case "size_arg", "size_args":
		if arg.SizeArg != "" {
			return arg.SizeArg + "()", true
		}
		if len(arg.SizeArgs) > 0 {
			return minSizeExpr(arg.SizeArgs, siblings), true
		}
		return "", false
	case "type_arg":
		return arg.TypeArg + "()", true
	default:
		return token, true
	}
}

// minSizeExpr combines several length arguments as their minimum. A pointer
// sibling that is absent at runtime counts as unbounded.
func minSizeExpr(names []string, siblings map[string]ir.ArgDecl) string {
	terms := make([]string, 0, len(names))
	for _, name := range names {
		if sib, ok := siblings[name]; ok && sib.Pointer {
			terms = append(terms, "("+name+"Ptr() ? "+name+"() : "+unboundedSize+")")
			continue
		}
		terms = append(terms, name+"()")
	}
	return "std::min<uint64_t>(" + strings.Join(terms, ", ") + ")"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func boolPtr(b bool) *bool { return &b }
