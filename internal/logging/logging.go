// Package logging builds the zap loggers used across callgen.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels for the -v flag count.
const (
	VerbosityQuiet = 0 // warnings and errors only
	VerbosityInfo  = 1 // -v: per-library progress, file outcomes
	VerbosityDebug = 2 // -vv / --debug: resolution and normalization detail
)

// Standard field names for structured logging.
const (
	FieldLibrary   = "library"
	FieldOperation = "operation"
	FieldArgument  = "argument"
	FieldType      = "type"
	FieldPath      = "path"
	FieldOutcome   = "outcome"
	FieldCount     = "count"
	FieldTemplate  = "template"
	FieldError     = "error"
)

// VerbosityToLevel maps the -v count to a zap level:
//
//	0      -> WarnLevel
//	1      -> InfoLevel
//	2+     -> DebugLevel
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityQuiet:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// New builds a logger writing to stderr. Stdout is reserved for command
// output (list mode paths, dump JSON).
func New(verbosity int, jsonOutput bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(VerbosityToLevel(verbosity))

	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = level
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
		return config.Build()
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	encoderConfig.CallerKey = ""
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
