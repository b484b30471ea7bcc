// Package loader discovers and decodes declaration files under a
// declaration root.
//
// Layout:
//
//	<root>/typemap.<ext>                 global type table (optional)
//	<root>/libraries/<lib>/settings.<ext> settings record (required)
//	<root>/libraries/<lib>/typemap.<ext>  library type table (optional)
//	<root>/libraries/<lib>/*.<ext>        operation tables
//
// Supported extensions are .json, .yaml, .yml, .toml and .cue. Loading is
// fail-fast: the first unreadable or malformed file stops the load with a
// positioned LoadError.
package loader
