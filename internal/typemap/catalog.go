package typemap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/callgen/internal/ir"
)

// MaxRedirects bounds how many redirect hops a single resolution may follow.
const MaxRedirects = 10

// Resolution error codes (T001-T099)
const (
	ErrUnknownType      = "T001" // name absent from the catalog
	ErrRedirectOverflow = "T002" // redirect chain longer than MaxRedirects
	ErrExtendsCycle     = "T003" // entry extends itself, directly or indirectly
)

// ResolutionError reports a type name that could not be resolved.
type ResolutionError struct {
	Code    string   `json:"code"`
	Type    string   `json:"type"`
	Chain   []string `json:"chain,omitempty"` // names visited before failing
	Message string   `json:"message"`
}

func (e *ResolutionError) Error() string {
	if len(e.Chain) > 1 {
		return fmt.Sprintf("[%s] type %q: %s (via %s)", e.Code, e.Type, e.Message, strings.Join(e.Chain, " -> "))
	}
	return fmt.Sprintf("[%s] type %q: %s", e.Code, e.Type, e.Message)
}

// Catalog is a read-only type-name table.
type Catalog struct {
	entries map[string]ir.TypeEntry
}

// NewCatalog builds a composite catalog. Later tables override earlier ones
// entry by entry, so a library table layered over the global table wins.
func NewCatalog(tables ...map[string]ir.TypeEntry) *Catalog {
	c := &Catalog{entries: make(map[string]ir.TypeEntry)}
	for _, table := range tables {
		for name, entry := range table {
			c.entries[name] = entry.Clone()
		}
	}
	return c
}

// Layer returns a new catalog with table overlaid on c.
func (c *Catalog) Layer(table map[string]ir.TypeEntry) *Catalog {
	return NewCatalog(c.entries, table)
}

// Has reports whether name is declared (without resolving it).
func (c *Catalog) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Len returns the number of declared names.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Names returns declared names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve resolves name through redirects and extends. It returns the merged
// entry and the canonical type name: the name reached after following
// redirects, before any extends merge.
func (c *Catalog) Resolve(name string) (ir.TypeEntry, string, error) {
	return c.resolve(name, nil)
}

func (c *Catalog) resolve(name string, extending []string) (ir.TypeEntry, string, error) {
	canonical, entry, err := c.follow(name)
	if err != nil {
		return ir.TypeEntry{}, "", err
	}

	if entry.Extends == "" {
		return entry.Clone(), canonical, nil
	}

	for _, seen := range extending {
		if seen == canonical {
			return ir.TypeEntry{}, "", &ResolutionError{
				Code:    ErrExtendsCycle,
				Type:    canonical,
				Chain:   append(append([]string{}, extending...), canonical),
				Message: "extends chain loops back on itself",
			}
		}
	}
	if len(extending) >= MaxRedirects {
		return ir.TypeEntry{}, "", &ResolutionError{
			Code:    ErrExtendsCycle,
			Type:    canonical,
			Chain:   append(append([]string{}, extending...), canonical),
			Message: fmt.Sprintf("extends chain deeper than %d", MaxRedirects),
		}
	}

	base, _, err := c.resolve(entry.Extends, append(extending, canonical))
	if err != nil {
		return ir.TypeEntry{}, "", err
	}
	return Merge(base, entry), canonical, nil
}

// follow walks redirect pointers from name to the first non-redirect entry.
func (c *Catalog) follow(name string) (string, ir.TypeEntry, error) {
	chain := []string{name}
	entry, ok := c.entries[name]
	if !ok {
		return "", ir.TypeEntry{}, &ResolutionError{
			Code:    ErrUnknownType,
			Type:    name,
			Message: "not found in typemap",
		}
	}

	hops := 0
	for entry.Redirect != "" {
		hops++
		if hops > MaxRedirects {
			return "", ir.TypeEntry{}, &ResolutionError{
				Code:    ErrRedirectOverflow,
				Type:    chain[0],
				Chain:   chain,
				Message: fmt.Sprintf("more than %d redirects", MaxRedirects),
			}
		}
		name = entry.Redirect
		chain = append(chain, name)
		entry, ok = c.entries[name]
		if !ok {
			return "", ir.TypeEntry{}, &ResolutionError{
				Code:    ErrUnknownType,
				Type:    name,
				Chain:   chain,
				Message: "redirect target not found in typemap",
			}
		}
	}
	return name, entry, nil
}

// IsResolutionError reports whether err is (or wraps) a ResolutionError with code.
// An empty code matches any resolution error.
func IsResolutionError(err error, code string) bool {
	var re *ResolutionError
	if !errors.As(err, &re) {
		return false
	}
	return code == "" || re.Code == code
}
