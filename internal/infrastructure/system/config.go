// Package system provides infrastructure for system-level configuration
// (~/.assetkit/config.yaml).
package system

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/goccy/go-yaml"
)

// State backends.
const (
	StateBackendMemory = "memory"
	StateBackendRedis  = "redis"
)

// Config represents the global configuration file.
type Config struct {
	Execution  ExecutionConfig   `yaml:"execution"`
	CDN        CDNConfig         `yaml:"cdn"`
	Passwords  map[string]string `yaml:"passwords"`
	Secrets    SecretsConfig     `yaml:"secrets"`
	State      StateConfig       `yaml:"state"`
	Redaction  RedactionConfig   `yaml:"redaction"`
	Limits     LimitsConfig      `yaml:"limits"`
	AssetTypes AssetTypesConfig  `yaml:"asset_types"`
}

// ExecutionConfig controls where and how long scripts run.
type ExecutionConfig struct {
	// Mode is EditorOnly, RuntimeOnly or Both
	Mode string `yaml:"mode"`
	// Context is editor or runtime
	Context        string `yaml:"context"`
	BudgetMS       int    `yaml:"budget_ms"`
	HardLimitMS    int    `yaml:"hard_limit_ms"`
	RestartRunning bool   `yaml:"restart_running"`
	UpdateScripts  bool   `yaml:"update_scripts"`
}

// CDNConfig configures remote asset retrieval.
type CDNConfig struct {
	BaseURL        string `yaml:"base_url"`
	KeyServiceURL  string `yaml:"key_service_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// SecretsConfig configures the sources of "secret:NAME" password references.
type SecretsConfig struct {
	// Local defines static secrets for development (name -> value)
	Local map[string]string `yaml:"local"`

	// Env defines environment variable mappings (secret_name -> env_var_name)
	Env map[string]string `yaml:"env"`

	// Files defines file path mappings (secret_name -> file_path)
	Files map[string]string `yaml:"files"`
}

// StateConfig selects the store behind the scene and global state scopes.
type StateConfig struct {
	Backend   string `yaml:"backend"`
	RedisAddr string `yaml:"redis_addr"`
	KeyPrefix string `yaml:"key_prefix"`
}

// RedactionConfig configures how script output is sanitized.
type RedactionConfig struct {
	HashMode        HashModeConfig `yaml:"hash_mode"`
	Patterns        []string       `yaml:"patterns"`
	Paths           []string       `yaml:"paths"`
	DisableGitleaks bool           `yaml:"disable_gitleaks"`
}

// HashModeConfig controls hash-based redaction.
type HashModeConfig struct {
	Salt    string `yaml:"salt"`
	Enabled bool   `yaml:"enabled"`
}

// LimitsConfig bounds archive handling.
type LimitsConfig struct {
	MaxArchiveBytes      int64 `yaml:"max_archive_bytes"`
	MaxUncompressedBytes int64 `yaml:"max_uncompressed_bytes"`
}

// AssetTypesConfig configures asset type resolution.
type AssetTypesConfig struct {
	// Default is used when metadata carries no type
	Default string `yaml:"default"`
}

// ConfigLoader loads system configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new system config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultPath returns ~/.assetkit/config.yaml, or a relative path when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".assetkit", "config.yaml")
	}
	return filepath.Join(home, ".assetkit", "config.yaml")
}

// DefaultConfig returns a Config with safe defaults for all fields.
// This is used when no system config file exists.
func DefaultConfig() *Config {
	return &Config{
		Execution: ExecutionConfig{
			Mode:          values.ModeBoth.String(),
			Context:       values.ContextRuntime.String(),
			BudgetMS:      5,
			HardLimitMS:   250,
			UpdateScripts: true,
		},
		CDN: CDNConfig{
			TimeoutSeconds: 30,
			MaxRetries:     3,
		},
		Passwords: make(map[string]string),
		Secrets: SecretsConfig{
			Local: make(map[string]string),
			Env:   make(map[string]string),
			Files: make(map[string]string),
		},
		State: StateConfig{
			Backend:   StateBackendMemory,
			KeyPrefix: "assetkit:",
		},
		Redaction: RedactionConfig{
			Patterns: []string{},
			Paths:    []string{},
		},
		Limits: LimitsConfig{
			MaxArchiveBytes:      256 << 20,
			MaxUncompressedBytes: 1 << 30,
		},
		AssetTypes: AssetTypesConfig{Default: "prop"},
	}
}

// Load loads the system configuration from the specified path. Values absent
// from the file keep their defaults. A missing file yields DefaultConfig().
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is the user's own config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}
	if config.Passwords == nil {
		config.Passwords = make(map[string]string)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks enumerations and limits.
func (c *Config) Validate() error {
	if _, err := c.ExecutionMode(); err != nil {
		return apperrors.NewConfigurationError("execution", "invalid mode", err)
	}
	if _, err := c.HostContext(); err != nil {
		return apperrors.NewConfigurationError("execution", "invalid context", err)
	}
	if c.Execution.BudgetMS < 0 || c.Execution.HardLimitMS < 0 {
		return apperrors.NewConfigurationError("execution", "time limits must not be negative", nil)
	}
	switch c.State.Backend {
	case "", StateBackendMemory:
	case StateBackendRedis:
		if c.State.RedisAddr == "" {
			return apperrors.NewConfigurationError("state", "redis backend requires redis_addr", nil)
		}
	default:
		return apperrors.NewConfigurationError("state", fmt.Sprintf("unknown backend %q", c.State.Backend), nil)
	}
	if c.Limits.MaxArchiveBytes <= 0 || c.Limits.MaxUncompressedBytes <= 0 {
		return apperrors.NewConfigurationError("limits", "limits must be positive", nil)
	}
	if c.CDN.MaxRetries < 0 {
		return apperrors.NewConfigurationError("cdn", "max_retries must not be negative", nil)
	}
	return nil
}

// ExecutionMode parses the configured mode.
func (c *Config) ExecutionMode() (values.ExecutionMode, error) {
	return values.ParseExecutionMode(c.Execution.Mode)
}

// HostContext parses the configured context.
func (c *Config) HostContext() (values.HostContext, error) {
	return values.ParseHostContext(c.Execution.Context)
}

// Budget returns the per-step script budget.
func (c *Config) Budget() time.Duration {
	return time.Duration(c.Execution.BudgetMS) * time.Millisecond
}

// HardLimit returns the per-step hard ceiling.
func (c *Config) HardLimit() time.Duration {
	return time.Duration(c.Execution.HardLimitMS) * time.Millisecond
}

// CDNTimeout returns the HTTP timeout for CDN and key service requests.
func (c *Config) CDNTimeout() time.Duration {
	return time.Duration(c.CDN.TimeoutSeconds) * time.Second
}
