package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// RepoDirName is the per-repository config directory.
const RepoDirName = ".objdb"

// ConfigFileName is the config file inside the base or repo directory.
const ConfigFileName = "config.json"

// LogLevels lists the accepted log_level values.
var LogLevels = []string{"debug", "info", "warn", "warning", "error"}

// Config holds application configuration.
type Config struct {
	// HistoryMaxItems caps the undo history of an edit session
	HistoryMaxItems int `json:"history_max_items"`

	// DocumentMaxBytes is the largest document accepted by import and store
	DocumentMaxBytes int64 `json:"document_max_bytes"`

	LogLevel string `json:"log_level,omitempty"`

	// WebAddr is the listen address of objdb serve
	WebAddr string `json:"web_addr,omitempty"`

	// AllowedPaths are extra directories (absolute) that import and export
	// may use besides ~/.objdb/exports.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the directory allowlist. Extension and symlink
	// checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// Pool limits; 0 keeps the database/sql default. DBMaxOpenConns=1
	// serializes all access.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools and DisabledTypes keep MCP tools from being registered,
	// by tool name or by type prefix ("snapshot", "object", "category").
	DisabledTools []string `json:"disabled_tools,omitempty"`
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HistoryMaxItems:  50,
		DocumentMaxBytes: 16 * 1024 * 1024,
		LogLevel:         "info",
		WebAddr:          "127.0.0.1:7412",
	}
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	switch {
	case c.HistoryMaxItems < 0:
		return fmt.Errorf("history_max_items must not be negative, got %d", c.HistoryMaxItems)
	case c.DocumentMaxBytes < 0:
		return fmt.Errorf("document_max_bytes must not be negative, got %d", c.DocumentMaxBytes)
	case c.DBMaxOpenConns < 0 || c.DBMaxIdleConns < 0:
		return fmt.Errorf("db_max_open_conns and db_max_idle_conns must not be negative")
	case c.LogLevel != "" && !slices.Contains(LogLevels, strings.ToLower(strings.TrimSpace(c.LogLevel))):
		return fmt.Errorf("log_level must be one of %s, got %q", strings.Join(LogLevels, ", "), c.LogLevel)
	}
	return nil
}

// Load reads baseDir/config.json over the defaults. A missing file yields
// the defaults.
func Load(baseDir string) (*Config, error) {
	cfg, err := readFile(filepath.Join(baseDir, ConfigFileName))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo layers the defaults, globalDir/config.json and the nearest
// .objdb/config.json found walking up from startDir. Later layers win for
// scalars; lists are merged without duplicates. Either file may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	cfg := DefaultConfig()
	for _, path := range []string{filepath.Join(globalDir, ConfigFileName), FindRepoConfig(startDir)} {
		layer, err := readFile(path)
		if err != nil {
			return nil, err
		}
		cfg = Merge(cfg, layer)
	}
	return cfg, nil
}

// FindRepoConfig returns the nearest .objdb/config.json at or above
// startDir, or "" when there is none.
func FindRepoConfig(startDir string) string {
	for dir := startDir; ; {
		p := filepath.Join(dir, RepoDirName, ConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// readFile decodes one config file. An empty path or a missing file gives a
// zero Config, not the defaults.
func readFile(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Merge returns base overlaid with overlay. Non-zero overlay scalars win,
// AllowUnsafePaths is true if either is, and lists are concatenated,
// trimmed and de-duplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		HistoryMaxItems:  pick(overlay.HistoryMaxItems, base.HistoryMaxItems),
		DocumentMaxBytes: pick(overlay.DocumentMaxBytes, base.DocumentMaxBytes),
		LogLevel:         pick(strings.TrimSpace(overlay.LogLevel), base.LogLevel),
		WebAddr:          pick(strings.TrimSpace(overlay.WebAddr), base.WebAddr),
		AllowedPaths:     mergeLists(base.AllowedPaths, overlay.AllowedPaths),
		AllowUnsafePaths: base.AllowUnsafePaths || overlay.AllowUnsafePaths,
		DBMaxOpenConns:   pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:   pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		DisabledTools:    mergeLists(base.DisabledTools, overlay.DisabledTools),
		DisabledTypes:    mergeLists(base.DisabledTypes, overlay.DisabledTypes),
	}
}

func pick[T comparable](overlay, base T) T {
	var zero T
	if overlay == zero {
		return base
	}
	return overlay
}

func mergeLists(a, b []string) []string {
	var out []string
	for _, s := range slices.Concat(a, b) {
		if s = strings.TrimSpace(s); s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
