package render

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// DefaultFormatCommand is the formatter invoked when none is configured.
const DefaultFormatCommand = "clang-format"

// Formatter rewrites rendered source. name is the output path, which lets
// the formatter pick a language.
type Formatter interface {
	Format(ctx context.Context, name string, src []byte) ([]byte, error)
}

// NopFormatter returns its input unchanged.
type NopFormatter struct{}

func (NopFormatter) Format(_ context.Context, _ string, src []byte) ([]byte, error) {
	return src, nil
}

// ExecFormatter pipes source through an external command, clang-format style:
// source on stdin, formatted source on stdout, --assume-filename naming the
// language.
type ExecFormatter struct {
	Command string
	Args    []string
}

func (f ExecFormatter) Format(ctx context.Context, name string, src []byte) ([]byte, error) {
	command := f.Command
	if command == "" {
		command = DefaultFormatCommand
	}
	args := append(append([]string(nil), f.Args...), "--assume-filename="+name)

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "formatting %s with %s: %s",
			name, command, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
