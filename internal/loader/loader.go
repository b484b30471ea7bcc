package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/callgen/internal/ir"
	"github.com/roach88/callgen/internal/logging"
)

// Well-known names inside a declaration root.
const (
	LibrariesDir = "libraries"
	TypemapBase  = "typemap"
	SettingsBase = "settings"
)

// Loader reads a declaration root.
type Loader struct {
	Decoder *Decoder
	Logger  *zap.Logger
}

// New returns a loader with a strict decoder.
func New(logger *zap.Logger) *Loader {
	return &Loader{Decoder: NewDecoder(), Logger: logger}
}

// Load reads every declaration file under root.
func Load(root string, logger *zap.Logger) (*ir.Declarations, error) {
	return New(logger).Load(root)
}

// Load reads every declaration file under root.
func (l *Loader) Load(root string) (*ir.Declarations, error) {
	log := logging.OrNop(l.Logger)

	if err := requireDir(root, "declaration root"); err != nil {
		return nil, err
	}

	decls := &ir.Declarations{Root: root, Types: map[string]ir.TypeEntry{}}

	typemapPath, err := findTable(root, TypemapBase)
	if err != nil {
		return nil, err
	}
	if typemapPath != "" {
		if err := l.decodeFile(typemapPath, &decls.Types); err != nil {
			return nil, err
		}
		log.Debug("global typemap loaded",
			zap.String(logging.FieldPath, typemapPath),
			zap.Int(logging.FieldCount, len(decls.Types)))
	}

	libRoot := filepath.Join(root, LibrariesDir)
	if err := requireDir(libRoot, "libraries directory"); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(libRoot)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, File: libRoot, Message: err.Error(), Err: err}
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		set, err := l.loadLibrary(filepath.Join(libRoot, entry.Name()), entry.Name())
		if err != nil {
			return nil, err
		}
		decls.Libraries = append(decls.Libraries, set)
		log.Info("library loaded",
			zap.String(logging.FieldLibrary, set.Name),
			zap.Int(logging.FieldCount, len(set.Operations)))
	}

	if len(decls.Libraries) == 0 {
		return nil, &LoadError{Code: ErrCodeNoLibraries, File: libRoot, Message: "no library directories found"}
	}

	return decls, nil
}

// loadLibrary reads one library directory.
func (l *Loader) loadLibrary(dir, name string) (*ir.DeclSet, error) {
	set := &ir.DeclSet{
		Name:       name,
		Types:      map[string]ir.TypeEntry{},
		Operations: map[string]ir.OpDecl{},
	}

	settingsPath, err := findTable(dir, SettingsBase)
	if err != nil {
		return nil, err
	}
	if settingsPath == "" {
		return nil, &LoadError{
			Code:    ErrCodeMissingSettings,
			File:    dir,
			Message: fmt.Sprintf("library %s has no settings file (settings%s)", name, strings.Join(Extensions, "|")),
		}
	}
	var raw map[string]any
	if err := l.decodeFileLenient(settingsPath, &raw); err != nil {
		return nil, err
	}
	settings, err := SettingsFromMap(raw)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecodeFailed, File: settingsPath, Message: err.Error(), Err: err}
	}
	set.Settings = settings
	set.Files = append(set.Files, settingsPath)

	typemapPath, err := findTable(dir, TypemapBase)
	if err != nil {
		return nil, err
	}
	if typemapPath != "" {
		if err := l.decodeFile(typemapPath, &set.Types); err != nil {
			return nil, err
		}
		set.Files = append(set.Files, typemapPath)
	}

	files, err := operationFiles(dir)
	if err != nil {
		return nil, err
	}
	declaredIn := make(map[string]string)
	for _, path := range files {
		var table map[string]ir.OpDecl
		if err := l.decodeFile(path, &table); err != nil {
			return nil, err
		}
		for opName, op := range table {
			if prev, dup := declaredIn[opName]; dup {
				return nil, &LoadError{
					Code:    ErrCodeDuplicateOperation,
					File:    path,
					Message: fmt.Sprintf("operation %s already declared in %s", opName, prev),
				}
			}
			declaredIn[opName] = path
			set.Operations[opName] = op
		}
		set.Files = append(set.Files, path)
	}

	return set, nil
}

func (l *Loader) decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Code: ErrCodeNotFound, File: path, Message: err.Error(), Err: err}
	}
	return l.decoder().Decode(path, data, out)
}

// decodeFileLenient decodes without unknown-field checks; settings records
// are open-ended.
func (l *Loader) decodeFileLenient(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Code: ErrCodeNotFound, File: path, Message: err.Error(), Err: err}
	}
	dec := *l.decoder()
	dec.Strict = false
	return dec.Decode(path, data, out)
}

func (l *Loader) decoder() *Decoder {
	if l.Decoder == nil {
		l.Decoder = NewDecoder()
	}
	return l.Decoder
}

// findTable returns the single <dir>/<base>.<ext> file, or "" if none.
func findTable(dir, base string) (string, error) {
	var found []string
	for _, ext := range Extensions {
		path := filepath.Join(dir, base+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			found = append(found, path)
		}
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", &LoadError{
			Code:    ErrCodeAmbiguousFile,
			File:    dir,
			Message: fmt.Sprintf("%s declared more than once: %s", base, strings.Join(found, ", ")),
		}
	}
}

// operationFiles lists the supported files in dir other than the settings
// and typemap tables, sorted by name.
func operationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, File: dir, Message: err.Error(), Err: err}
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !Supported(name) {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if stem == SettingsBase || stem == TypemapBase {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func requireDir(path, what string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &LoadError{Code: ErrCodeNotFound, File: path, Message: what + " not found", Err: err}
	}
	if err != nil {
		return &LoadError{Code: ErrCodeNotFound, File: path, Message: fmt.Sprintf("error accessing %s: %v", what, err), Err: err}
	}
	if !info.IsDir() {
		return &LoadError{Code: ErrCodeNotFound, File: path, Message: what + " is not a directory"}
	}
	return nil
}
