// Package ir provides the declaration and resolved-model types for callgen.
//
// This package contains type definitions and serialization helpers only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the model the foundational layer with no circular dependencies.
//
// Two families of records live here:
//   - Declaration records (TypeEntry, ArgDecl, OpDecl, Settings, DeclSet) are
//     decoded from declaration files and are never mutated after loading.
//   - Resolved records (Argument, Operation, Library) are built once, fully
//     normalized, by the compiler and handed to the renderer.
//
// Key design constraints:
//   - Optional declaration fields are pointers so "absent" and "zero" differ
//   - Resolved records never alias declaration slices
//   - All JSON tags use snake_case, matching the declaration files
package ir
