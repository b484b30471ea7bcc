// Package render turns resolved libraries into C++ source text.
//
// Templates are embedded in the binary and may be overridden from a
// directory on disk. Rendered text passes through a Formatter before the
// Emitter hands it to an output.Writer.
package render
