// internal/config/config.go
//
// This package handles gemhelper configuration. Settings come from three
// layers, later layers winning: built-in defaults, an optional
// .gemhelper.yml in the gem's root directory, and the environment. The CLI
// applies its flags on top of the result.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the optional per-gem configuration file.
	FileName = ".gemhelper.yml"

	defaultPkgDir       = "pkg"
	defaultChecksumsDir = "checksums"
)

// Environment variables consulted by Load.
const (
	EnvGemCommand   = "GEM_COMMAND"
	EnvGemPush      = "gem_push"
	EnvPushKey      = "BUNDLE_GEM__PUSH_KEY"
	EnvRubygemsHost = "RUBYGEMS_HOST"
	EnvTagPrefix    = "GEMHELPER_TAG_PREFIX"
)

// FileConfig models .gemhelper.yml.
type FileConfig struct {
	Name         string  `yaml:"name,omitempty"`
	TagPrefix    *string `yaml:"tag_prefix,omitempty"`
	GemCommand   string  `yaml:"gem_command,omitempty"`
	PushKey      string  `yaml:"push_key,omitempty"`
	GemPush      *bool   `yaml:"gem_push,omitempty"`
	Remote       string  `yaml:"remote,omitempty"`
	PkgDir       string  `yaml:"pkg_dir,omitempty"`
	ChecksumsDir string  `yaml:"checksums_dir,omitempty"`
}

// Config holds the runtime configuration for one gem directory.
type Config struct {
	// Dir is the absolute gem root (where the gemspec lives).
	Dir string
	// Name selects <Name>.gemspec when a directory holds several.
	Name string
	// TagPrefix is prepended to the version to form the release tag.
	TagPrefix string
	// GemCommand is the argv prefix for the RubyGems binary.
	GemCommand []string
	// PushKey selects a named API key for gem push.
	PushKey string
	// GemPush disables publishing when false.
	GemPush bool
	// RubygemsHost mirrors RUBYGEMS_HOST; empty when unset.
	RubygemsHost string
	// Remote overrides the git remote pushed to.
	Remote string

	PkgDir       string
	ChecksumsDir string
}

// Default returns the built-in configuration for dir.
func Default(dir string) *Config {
	return &Config{
		Dir:          dir,
		GemCommand:   []string{"gem"},
		GemPush:      true,
		PkgDir:       defaultPkgDir,
		ChecksumsDir: defaultChecksumsDir,
	}
}

// Load builds the configuration for dir (the working directory when empty)
// from defaults, the config file and the process environment.
func Load(dir string) (*Config, error) {
	return LoadWithEnv(dir, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(dir string, lookup func(string) (string, bool)) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: determine working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	cfg := Default(abs)
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile() error {
	path := filepath.Join(c.Dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c.applyFile(file)
}

func (c *Config) applyFile(file FileConfig) error {
	if name := strings.TrimSpace(file.Name); name != "" {
		c.Name = name
	}
	if file.TagPrefix != nil {
		c.TagPrefix = *file.TagPrefix
	}
	if cmd := strings.TrimSpace(file.GemCommand); cmd != "" {
		argv, err := splitCommand(cmd)
		if err != nil {
			return fmt.Errorf("config: gem_command: %w", err)
		}
		c.GemCommand = argv
	}
	if key := strings.TrimSpace(file.PushKey); key != "" {
		c.PushKey = key
	}
	if file.GemPush != nil {
		c.GemPush = *file.GemPush
	}
	if remote := strings.TrimSpace(file.Remote); remote != "" {
		c.Remote = remote
	}
	if dir := strings.TrimSpace(file.PkgDir); dir != "" {
		c.PkgDir = dir
	}
	if dir := strings.TrimSpace(file.ChecksumsDir); dir != "" {
		c.ChecksumsDir = dir
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	if value, ok := lookup(EnvGemCommand); ok && strings.TrimSpace(value) != "" {
		argv, err := splitCommand(value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvGemCommand, err)
		}
		c.GemCommand = argv
	}
	if value, ok := lookup(EnvGemPush); ok {
		c.GemPush = ParseGemPush(value)
	}
	if value, ok := lookup(EnvPushKey); ok && strings.TrimSpace(value) != "" {
		c.PushKey = strings.ToLower(strings.TrimSpace(value))
	}
	if value, ok := lookup(EnvRubygemsHost); ok {
		c.RubygemsHost = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvTagPrefix); ok {
		c.TagPrefix = value
	}
	return nil
}

// Validate rejects output directories that would escape the gem root.
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.Dir) {
		return fmt.Errorf("config: gem directory must be absolute, got %q", c.Dir)
	}
	if len(c.GemCommand) == 0 {
		return fmt.Errorf("config: gem command is empty")
	}
	for label, dir := range map[string]string{"pkg_dir": c.PkgDir, "checksums_dir": c.ChecksumsDir} {
		if err := validateRelative(label, dir); err != nil {
			return err
		}
	}
	return nil
}

// PkgPath returns the absolute archive output directory.
func (c *Config) PkgPath() string {
	return filepath.Join(c.Dir, c.PkgDir)
}

// ChecksumsPath returns the absolute checksum output directory.
func (c *Config) ChecksumsPath() string {
	return filepath.Join(c.Dir, c.ChecksumsDir)
}

// ParseGemPush interprets the gem_push toggle; only explicit negatives
// disable publishing.
func ParseGemPush(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "n", "no", "nil", "false", "off", "0":
		return false
	default:
		return true
	}
}

func splitCommand(value string) ([]string, error) {
	argv, err := shellquote.Split(value)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("command is empty")
	}
	return argv, nil
}

func validateRelative(label, dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("config: %s is required", label)
	}
	if filepath.IsAbs(dir) {
		return fmt.Errorf("config: %s must be relative to the gem directory, got %q", label, dir)
	}
	clean := filepath.Clean(dir)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("config: %s escapes the gem directory: %q", label, dir)
	}
	return nil
}
