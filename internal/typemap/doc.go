// Package typemap holds the type catalog and resolves type names through it.
//
// A catalog maps type names to generation attributes (ir.TypeEntry). Entries
// may alias another name (redirect) or inherit another entry's attributes
// (extends). Resolve follows both:
//
//  1. Follow redirect pointers, at most MaxRedirects hops
//  2. If the terminal entry extends a base, resolve the base recursively
//  3. Merge base and child with Merge (child scalars win, includes union)
//
// Resolution is a pure read: the catalog is never modified, and resolving
// the same name twice yields identical entries.
package typemap
