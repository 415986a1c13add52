// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.canvas/config.yaml)
//  3. Default values
//
// Categories:
//   - Detection: candidate thresholds and per-message limits
//   - Storage: backend selection (memory, sqlite, postgres) and connection
//   - Log: level and format
//
// Sensitive data (the Postgres password) is never logged; Config masks it
// in MarshalJSON and String. Validation is fail-fast with sentinel errors
// checked via errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidBackend indicates an unknown storage backend name.
	ErrInvalidBackend = errors.New("invalid storage backend")

	// ErrInvalidThreshold indicates a similarity or confidence threshold
	// outside [0,1].
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrInvalidLimit indicates a non-positive size or count limit.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrMissingDatabaseURL indicates the postgres backend was selected
	// without a connection URL.
	ErrMissingDatabaseURL = errors.New("missing database URL")

	// ErrInvalidDatabaseURL indicates the connection URL is malformed.
	ErrInvalidDatabaseURL = errors.New("invalid database URL")
)

// Storage backend identifiers used in Config.Backend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; when adding new
// secrets, update that method.
type Config struct {
	// Detection tuning
	MaxArtifactsPerMessage int     `mapstructure:"max_artifacts_per_message" json:"max_artifacts_per_message"`
	SimilarityThreshold    float64 `mapstructure:"similarity_threshold" json:"similarity_threshold"`
	ConfidenceThreshold    float64 `mapstructure:"confidence_threshold" json:"confidence_threshold"`
	MinContentSize         int     `mapstructure:"min_content_size" json:"min_content_size"`
	DuplicateMinLength     int     `mapstructure:"duplicate_min_length" json:"duplicate_min_length"`
	MaxCompareLength       int     `mapstructure:"max_compare_length" json:"max_compare_length"`

	// Index tuning
	IndexCacheSize int `mapstructure:"index_cache_size" json:"index_cache_size"`

	// Storage configuration
	Backend     string `mapstructure:"backend" json:"backend"`           // "memory" (default), "sqlite", "postgres"
	SQLitePath  string `mapstructure:"sqlite_path" json:"sqlite_path"`   // used when backend is "sqlite"
	DatabaseURL string `mapstructure:"database_url" json:"database_url"` // SENSITIVE: masked in MarshalJSON

	// Log configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"` // "debug", "info", "warn", "error"
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".canvas")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults(configDir)
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(configDir string) {
	// Detection defaults
	viper.SetDefault("max_artifacts_per_message", 10)
	viper.SetDefault("similarity_threshold", 0.95)
	viper.SetDefault("confidence_threshold", 0.5)
	viper.SetDefault("min_content_size", 20)
	viper.SetDefault("duplicate_min_length", 50)
	viper.SetDefault("max_compare_length", 64*1024)

	// Index defaults
	viper.SetDefault("index_cache_size", 256)

	// Storage defaults
	viper.SetDefault("backend", BackendMemory)
	viper.SetDefault("sqlite_path", filepath.Join(configDir, "canvas.db"))

	// Log defaults
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// bindEnvVariables binds environment overrides explicitly. DATABASE_URL is
// the only secret-bearing variable; the rest exist for container
// deployments where a config file is awkward.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("database_url", "DATABASE_URL")
	mustBind("backend", "CANVAS_BACKEND")
	mustBind("sqlite_path", "CANVAS_SQLITE_PATH")
	mustBind("log_level", "CANVAS_LOG_LEVEL")
	mustBind("log_json", "CANVAS_LOG_JSON")
	mustBind("similarity_threshold", "CANVAS_SIMILARITY_THRESHOLD")
	mustBind("max_artifacts_per_message", "CANVAS_MAX_ARTIFACTS_PER_MESSAGE")
}

// Validate checks every field fail-fast, so misconfiguration surfaces at
// startup rather than mid-operation.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: backend %q requires DATABASE_URL", ErrMissingDatabaseURL, c.Backend)
		}
		u, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDatabaseURL, err)
		}
		if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			return fmt.Errorf("%w: scheme %q (expected postgres or postgresql)", ErrInvalidDatabaseURL, u.Scheme)
		}
	default:
		return fmt.Errorf("%w: %q (expected memory, sqlite, or postgres)", ErrInvalidBackend, c.Backend)
	}

	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold %v not in [0,1]", ErrInvalidThreshold, c.SimilarityThreshold)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold %v not in [0,1]", ErrInvalidThreshold, c.ConfidenceThreshold)
	}
	if c.MaxArtifactsPerMessage <= 0 {
		return fmt.Errorf("%w: max_artifacts_per_message %d must be positive", ErrInvalidLimit, c.MaxArtifactsPerMessage)
	}
	if c.MinContentSize <= 0 {
		return fmt.Errorf("%w: min_content_size %d must be positive", ErrInvalidLimit, c.MinContentSize)
	}
	if c.DuplicateMinLength <= 0 {
		return fmt.Errorf("%w: duplicate_min_length %d must be positive", ErrInvalidLimit, c.DuplicateMinLength)
	}
	if c.MaxCompareLength <= 0 {
		return fmt.Errorf("%w: max_compare_length %d must be positive", ErrInvalidLimit, c.MaxCompareLength)
	}
	if c.IndexCacheSize <= 0 {
		return fmt.Errorf("%w: index_cache_size %d must be positive", ErrInvalidLimit, c.IndexCacheSize)
	}
	return nil
}

// Level maps LogLevel to a slog.Level, defaulting to info on unknown
// values.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid accidental substring matches against real secret content.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Secrets of 8 bytes or fewer
// are fully masked; longer ones keep the first and last 2 characters for
// debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON masks sensitive fields. When adding new secrets, extend this
// method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.DatabaseURL = maskSecret(a.DatabaseURL)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
