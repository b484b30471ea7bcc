// Package output places generated files on disk and plans their paths.
package output

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/callgen/internal/ir"
	"github.com/roach88/callgen/internal/logging"
)

// Outcome describes what Write did to a path.
type Outcome string

const (
	Created   Outcome = "created"
	Updated   Outcome = "updated"
	Unchanged Outcome = "unchanged"
)

// DefaultMode is the permission given to generated files.
const DefaultMode fs.FileMode = 0o644

// Writer writes generated files only when their content changes, so build
// systems see untouched modification times for unchanged output.
type Writer struct {
	Mode   fs.FileMode
	Logger *zap.Logger
}

// NewWriter returns a writer using DefaultMode.
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{Mode: DefaultMode, Logger: logger}
}

// Write places content at path. If path already holds content with the same
// fingerprint, nothing is written. Otherwise content goes to a temporary
// sibling which is synced and renamed over path; the target never holds a
// partial write. New files get w.Mode, updated files keep their permissions.
// Missing parent directories are created.
func (w *Writer) Write(path string, content []byte) (Outcome, error) {
	log := logging.OrNop(w.Logger)

	outcome := Created
	mode := w.Mode
	if mode == 0 {
		mode = DefaultMode
	}
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if ir.ContentFingerprint(existing) == ir.ContentFingerprint(content) {
			log.Debug("file unchanged", zap.String(logging.FieldPath, path))
			return Unchanged, nil
		}
		outcome = Updated
		info, err := os.Stat(path)
		if err != nil {
			return "", errors.Wrapf(err, "stat %s", path)
		}
		mode = info.Mode().Perm()
	case errors.Is(err, fs.ErrNotExist):
	default:
		return "", errors.Wrapf(err, "reading %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrapf(err, "creating directory for %s", path)
	}
	if err := replace(path, content, mode); err != nil {
		return "", err
	}

	log.Debug("file written",
		zap.String(logging.FieldPath, path),
		zap.String(logging.FieldOutcome, string(outcome)))
	return outcome, nil
}

// replace atomically swaps content into path via a temporary sibling.
func replace(path string, content []byte, mode fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "creating temporary file for %s", path)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrapf(err, "syncing %s", tmp.Name())
	}
	if err := tmp.Chmod(mode); err != nil {
		return errors.Wrapf(err, "chmod %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "renaming into %s", path)
	}
	tmp = nil
	return nil
}
