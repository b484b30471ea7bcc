// Package config loads generator settings with viper.
//
// Sources in precedence order: explicit overrides (command-line flags),
// CALLGEN_* environment variables, the config file, then defaults.
package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in a declaration root.
const FileName = "callgen.yaml"

// EnvPrefix prefixes environment overrides: formatter.command is read from
// CALLGEN_FORMATTER_COMMAND.
const EnvPrefix = "CALLGEN"

// Config is the generator configuration.
type Config struct {
	Formatter FormatterConfig `mapstructure:"formatter"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Output    OutputConfig    `mapstructure:"output"`

	// File is the config file that was read, empty when none was.
	File string `mapstructure:"-"`
}

// FormatterConfig selects the external source formatter.
type FormatterConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// TemplatesConfig locates template overrides.
type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

// LedgerConfig locates the generation ledger. An empty path disables it.
type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

// OutputConfig supplies output directories when they are not given as
// arguments.
type OutputConfig struct {
	HeaderDir string `mapstructure:"header_dir"`
	SourceDir string `mapstructure:"source_dir"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper, root string) {
	v.SetDefault("formatter.enabled", true)
	v.SetDefault("formatter.command", "clang-format")
	v.SetDefault("formatter.args", []string{})

	templates := ""
	if root != "" {
		templates = filepath.Join(root, "templates")
	}
	v.SetDefault("templates.dir", templates)

	v.SetDefault("ledger.path", "")
	v.SetDefault("output.header_dir", "")
	v.SetDefault("output.source_dir", "")
}

// Load reads configuration for the declaration root. file names an explicit
// config file, which must exist; otherwise <root>/callgen.yaml is read when
// present. overrides are applied last, keyed by dotted config key.
func Load(root, file string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	SetDefaults(v, root)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := configPath(root, file)
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	cfg.File = path

	if cfg.Templates.Dir != "" && !filepath.IsAbs(cfg.Templates.Dir) && root != "" && path != "" && v.InConfig("templates.dir") {
		// Relative template dirs in a config file are relative to the root.
		cfg.Templates.Dir = filepath.Join(root, cfg.Templates.Dir)
	}
	return &cfg, nil
}

func configPath(root, file string) (string, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return "", errors.Wrapf(err, "config file %s", file)
		}
		return file, nil
	}
	if root == "" {
		return "", nil
	}
	candidate := filepath.Join(root, FileName)
	_, err := os.Stat(candidate)
	switch {
	case err == nil:
		return candidate, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		return "", errors.Wrapf(err, "config file %s", candidate)
	}
}
