package loader

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Extensions lists the supported declaration file extensions in the order
// they are tried.
var Extensions = []string{".json", ".yaml", ".yml", ".toml", ".cue"}

// Supported reports whether path has a declaration file extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Decoder decodes declaration file contents by extension.
type Decoder struct {
	// Strict rejects keys that do not map to a known field. It applies to
	// JSON, YAML and TOML; CUE decoding is always lenient.
	Strict bool

	cue *cue.Context
}

// NewDecoder returns a strict decoder.
func NewDecoder() *Decoder {
	return &Decoder{Strict: true, cue: cuecontext.New()}
}

// Decode decodes data read from path into out.
func (d *Decoder) Decode(path string, data []byte, out any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return d.decodeJSON(path, data, out)
	case ".yaml", ".yml":
		return d.decodeYAML(path, data, out)
	case ".toml":
		return d.decodeTOML(path, data, out)
	case ".cue":
		return d.decodeCUE(path, data, out)
	default:
		return &LoadError{Code: ErrCodeDecodeFailed, File: path, Message: "unsupported file extension"}
	}
}

func (d *Decoder) decodeJSON(path string, data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if d.Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(out); err != nil {
		return &LoadError{Code: ErrCodeDecodeFailed, File: path, Message: "decoding JSON: " + err.Error(), Err: err}
	}
	return nil
}

func (d *Decoder) decodeYAML(path string, data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(d.Strict)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return &LoadError{Code: ErrCodeDecodeFailed, File: path, Message: "decoding YAML: " + err.Error(), Err: err}
	}
	return nil
}

func (d *Decoder) decodeTOML(path string, data []byte, out any) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	if d.Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(out); err != nil {
		return &LoadError{Code: ErrCodeDecodeFailed, File: path, Message: "decoding TOML: " + err.Error(), Err: err}
	}
	return nil
}

func (d *Decoder) decodeCUE(path string, data []byte, out any) error {
	if d.cue == nil {
		d.cue = cuecontext.New()
	}
	value := d.cue.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return cueLoadError(ErrCodeBuildFailed, path, "building CUE value", err)
	}
	if err := value.Decode(out); err != nil {
		return cueLoadError(ErrCodeDecodeFailed, path, "decoding CUE value", err)
	}
	return nil
}

// cueLoadError keeps the first CUE position so the error points at the
// offending line.
func cueLoadError(code, path, context string, err error) *LoadError {
	le := &LoadError{Code: code, File: path, Message: context + ": " + err.Error(), Err: err}
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
