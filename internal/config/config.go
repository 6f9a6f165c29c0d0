// Package config resolves workbench settings from defaults, a YAML file and
// WORKBENCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/workbench/internal/core"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WORKBENCH_USER.
const EnvPrefix = "WORKBENCH"

// Storage backends.
const (
	StorageFilesystem = "filesystem"
	StorageSQLite     = "sqlite"
)

// Config keys.
const (
	KeyDataDir         = "data_dir"
	KeyUser            = "user"
	KeyStorage         = "storage"
	KeyTimeout         = "timeout"
	KeyFollowRedirects = "follow_redirects"
	KeyProxy           = "proxy"
	KeyEnvDir          = "env_dir"
	KeyDefaultHeaders  = "default_headers"
	KeyLogLevel        = "log_level"
)

// Config holds application configuration.
type Config struct {
	DataDir         string
	User            string
	Storage         string
	Timeout         time.Duration
	FollowRedirects bool
	Proxy           string
	EnvDir          string
	DefaultHeaders  []string
	LogLevel        string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	dataDir := ".workbench"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".workbench")
	}
	return Config{
		DataDir:         dataDir,
		User:            "default",
		Storage:         StorageFilesystem,
		Timeout:         30 * time.Second,
		FollowRedirects: true,
		EnvDir:          filepath.Join(dataDir, "environments"),
		DefaultHeaders:  []string{"Content-Type: application/json"},
		LogLevel:        "info",
	}
}

// Load resolves the configuration. An explicit path must exist; otherwise
// config.yaml is looked up in the user config directory and may be absent.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault(KeyDataDir, defaults.DataDir)
	v.SetDefault(KeyUser, defaults.User)
	v.SetDefault(KeyStorage, defaults.Storage)
	v.SetDefault(KeyTimeout, defaults.Timeout)
	v.SetDefault(KeyFollowRedirects, defaults.FollowRedirects)
	v.SetDefault(KeyProxy, "")
	v.SetDefault(KeyEnvDir, "")
	v.SetDefault(KeyDefaultHeaders, defaults.DefaultHeaders)
	v.SetDefault(KeyLogLevel, defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "workbench"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	timeout, err := parseTimeout(v.Get(KeyTimeout))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DataDir:         expandHome(v.GetString(KeyDataDir)),
		User:            strings.TrimSpace(v.GetString(KeyUser)),
		Storage:         strings.ToLower(strings.TrimSpace(v.GetString(KeyStorage))),
		Timeout:         timeout,
		FollowRedirects: v.GetBool(KeyFollowRedirects),
		Proxy:           v.GetString(KeyProxy),
		EnvDir:          expandHome(v.GetString(KeyEnvDir)),
		DefaultHeaders:  headerLines(v.Get(KeyDefaultHeaders)),
		LogLevel:        strings.ToLower(v.GetString(KeyLogLevel)),
	}
	if cfg.EnvDir == "" {
		cfg.EnvDir = filepath.Join(cfg.DataDir, "environments")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotenv loads KEY=value pairs from path into the process environment
// without overriding variables already set. A missing file is not an error.
func LoadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks the values Load cannot coerce.
func (c Config) Validate() error {
	if c.User == "" {
		return core.NewValidationError(KeyUser, core.ErrEmptyName, "user is required")
	}
	switch c.Storage {
	case StorageFilesystem, StorageSQLite:
	default:
		return core.NewValidationError(KeyStorage, nil, "unknown storage backend %q", c.Storage)
	}
	if c.Timeout < 0 {
		return core.NewValidationError(KeyTimeout, nil, "timeout must not be negative")
	}
	if _, err := c.DefaultHeaderList(); err != nil {
		return err
	}
	return nil
}

// DefaultHeaderList parses DefaultHeaders ("Name: value") into rows.
func (c Config) DefaultHeaderList() (core.KeyValueList, error) {
	var list core.KeyValueList
	for _, line := range c.DefaultHeaders {
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, core.NewValidationError(KeyDefaultHeaders, nil, "invalid header %q", line)
		}
		list.Append(name, strings.TrimSpace(value))
	}
	return list, nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// CollectionsDir is where the filesystem backend keeps user files.
func (c Config) CollectionsDir() string {
	return filepath.Join(c.DataDir, "collections")
}

// DatabasePath is the sqlite backend's database file.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "workbench.db")
}

// parseTimeout accepts a duration string ("10s") or a number of seconds.
func parseTimeout(raw any) (time.Duration, error) {
	switch t := raw.(type) {
	case time.Duration:
		return t, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case int64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	case string:
		s := strings.TrimSpace(t)
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return 0, core.NewValidationError(KeyTimeout, nil, "invalid timeout %q", t)
	default:
		return 0, core.NewValidationError(KeyTimeout, nil, "invalid timeout %v", raw)
	}
}

// headerLines reads default_headers from a YAML list or from an environment
// string of lines separated by newlines or semicolons.
func headerLines(raw any) []string {
	var lines []string
	switch h := raw.(type) {
	case []string:
		lines = h
	case []any:
		for _, item := range h {
			lines = append(lines, fmt.Sprint(item))
		}
	case string:
		lines = strings.FieldsFunc(h, func(r rune) bool { return r == '\n' || r == ';' })
	}

	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return result
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
