package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// SchemaPath is used when --schema is not given. Relative paths are
	// resolved against the working directory.
	SchemaPath string            `yaml:"schema_path,omitempty"`
	Theme      string            `yaml:"theme"`
	Types      map[string]string `yaml:"types,omitempty"` // overrides of the field type table
	// Formatter is run with the schema path appended after every write,
	// e.g. ["npx", "prisma", "format", "--schema"]. Empty disables it.
	Formatter  []string          `yaml:"formatter,omitempty"`
	Audit      AuditConfig       `yaml:"audit"`
	History    HistoryConfig     `yaml:"history"`
}

// AuditConfig controls the JSON Lines audit log of applied edits.
type AuditConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path,omitempty"` // defaults to ConfigDir()/audit.jsonl
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// HistoryConfig controls the edit journal used by history and undo.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // defaults to ConfigDir()/history.db
	Keep    int    `yaml:"keep"`           // entries kept per schema file
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Theme: "default",
		Audit: AuditConfig{
			Enabled:   false,
			MaxSizeMB: 10,
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    100,
		},
	}
}

// ConfigDir returns the prismo configuration directory path.
// It uses os.UserConfigDir to locate the base config directory and
// appends "prismo" to it, typically resulting in ~/.config/prismo/.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, "prismo"), nil
}

// DefaultPath returns ConfigDir()/config.yaml.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads a Config from the YAML file at path. If the file does not exist,
// it returns DefaultConfig without error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Audit.MaxSizeMB <= 0 {
		cfg.Audit.MaxSizeMB = DefaultConfig().Audit.MaxSizeMB
	}
	if cfg.History.Keep < 0 {
		cfg.History.Keep = 0
	}
	return cfg, nil
}

// LoadDefault loads configuration from the default path
// (ConfigDir()/config.yaml).
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the Config to the YAML file at path, creating any necessary
// parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// AuditPath returns the configured audit log path, or the default
// location inside ConfigDir.
func (c *Config) AuditPath() (string, error) {
	return c.stateFile(c.Audit.Path, "audit.jsonl")
}

// HistoryPath returns the configured journal database path, or the default
// location inside ConfigDir.
func (c *Config) HistoryPath() (string, error) {
	return c.stateFile(c.History.Path, "history.db")
}

func (c *Config) stateFile(configured, name string) (string, error) {
	if configured != "" {
		return expandHome(configured)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
