package typemap

import "github.com/roach88/callgen/internal/ir"

// Merge overlays child on base and returns a new entry; neither input is
// modified. Scalars set on the child win; an empty string counts as unset,
// so a child cannot clear a base scalar to "". Includes and ImplIncludes are
// unioned (base order first, then new child entries). Redirect is cleared
// because a merged entry is always terminal.
func Merge(base, child ir.TypeEntry) ir.TypeEntry {
	out := base.Clone()
	out.Redirect = ""
	out.Extends = child.Extends

	overlay(&out.Type, child.Type)
	overlay(&out.RawType, child.RawType)
	overlay(&out.WriteMethod, child.WriteMethod)
	overlay(&out.WriteBase, child.WriteBase)
	overlay(&out.ImplType, child.ImplType)

	out.Includes = union(out.Includes, child.Includes)
	out.ImplIncludes = union(out.ImplIncludes, child.ImplIncludes)

	if child.Helper != nil {
		h := child.Helper.Clone()
		out.Helper = &h
	}
	if child.UseAddressForInjection != nil {
		v := *child.UseAddressForInjection
		out.UseAddressForInjection = &v
	}
	return out
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func union(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
