package loader

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error code constants (E001-E099).
const (
	ErrCodeGeneric            = "E001" // Generic/unknown error
	ErrCodeScanError          = "E002" // Directory scan error
	ErrCodeNoLibraries        = "E003" // No library directories found
	ErrCodeDecodeFailed       = "E004" // File could not be decoded
	ErrCodeNotFound           = "E005" // Path not found
	ErrCodeBuildFailed        = "E006" // CUE build failed
	ErrCodeMissingSettings    = "E007" // Library without a settings file
	ErrCodeDuplicateOperation = "E008" // Operation declared in two files
	ErrCodeAmbiguousFile      = "E009" // Same table in two formats
)

// LoadError represents an error that occurred while loading declarations.
type LoadError struct {
	Code    string
	Message string
	File    string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
