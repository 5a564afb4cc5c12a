package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the service settings
type Config struct {
	Addr      string `json:"addr"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	// TMDB Integration settings
	TMDBBearerToken         string `json:"tmdb_bearer_token"`
	TMDBAPIKey              string `json:"tmdb_api_key"`
	TMDBTimeoutMs           int    `json:"tmdb_timeout_ms"`
	TMDBOutboundMaxRequests int    `json:"tmdb_outbound_max_requests"`
	TMDBOutboundWindowMs    int    `json:"tmdb_outbound_window_ms"`
	HydrateConcurrency      int    `json:"hydrate_concurrency"`
	LimiterPruneIntervalMs  int    `json:"limiter_prune_interval_ms"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:                    ":8080",
		LogLevel:                "info",
		LogFormat:               "json",
		TMDBBearerToken:         "",
		TMDBAPIKey:              "",
		TMDBTimeoutMs:           7000,
		TMDBOutboundMaxRequests: 40,
		TMDBOutboundWindowMs:    10000,
		HydrateConcurrency:      4,
		LimiterPruneIntervalMs:  60000,
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".hearth", "config.json"), nil
}

// Load reads the configuration from disk and applies overrides from env.
// A missing file is not an error.
func Load(env Env) (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path, env)
}

// LoadFile is Load with an explicit config file path
func LoadFile(path string, env Env) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Fields absent from the file keep their defaults.
		fileCfg := *DefaultConfig()
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg = fileCfg.withDefaults()
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if env == nil {
		return cfg, nil
	}
	if err := applyEnvOverrides(cfg, env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefaults fills in any missing fields with defaults
func (cfg Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = defaults.LogFormat
	}
	if cfg.TMDBTimeoutMs <= 0 {
		cfg.TMDBTimeoutMs = defaults.TMDBTimeoutMs
	}
	if cfg.TMDBOutboundWindowMs <= 0 {
		cfg.TMDBOutboundWindowMs = defaults.TMDBOutboundWindowMs
	}
	if cfg.HydrateConcurrency <= 0 {
		cfg.HydrateConcurrency = defaults.HydrateConcurrency
	}
	if cfg.LimiterPruneIntervalMs <= 0 {
		cfg.LimiterPruneIntervalMs = defaults.LimiterPruneIntervalMs
	}
	// An explicit TMDBOutboundMaxRequests of 0 disables outbound pacing.
	return &cfg
}

func applyEnvOverrides(cfg *Config, env Env) error {
	strs := map[string]*string{
		"HEARTH_ADDR":       &cfg.Addr,
		"HEARTH_LOG_LEVEL":  &cfg.LogLevel,
		"HEARTH_LOG_FORMAT": &cfg.LogFormat,
		"TMDB_BEARER_TOKEN": &cfg.TMDBBearerToken,
		"TMDB_API_KEY":      &cfg.TMDBAPIKey,
	}
	for key, dst := range strs {
		if value, ok := env(key); ok && strings.TrimSpace(value) != "" {
			*dst = strings.TrimSpace(value)
		}
	}

	ints := map[string]*int{
		"TMDB_TIMEOUT_MS":              &cfg.TMDBTimeoutMs,
		"TMDB_OUTBOUND_MAX_REQUESTS":   &cfg.TMDBOutboundMaxRequests,
		"TMDB_OUTBOUND_WINDOW_MS":      &cfg.TMDBOutboundWindowMs,
		"HYDRATE_CONCURRENCY":          &cfg.HydrateConcurrency,
		"RATE_LIMIT_PRUNE_INTERVAL_MS": &cfg.LimiterPruneIntervalMs,
	}
	for key, dst := range ints {
		value, ok := env(key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid %s %q: must be a non-negative integer", key, value)
		}
		*dst = parsed
	}
	return nil
}

// Save writes the configuration to disk
func (cfg *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Credentials live in this file
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// TMDBTimeout returns the per-call upstream timeout
func (cfg *Config) TMDBTimeout() time.Duration {
	return time.Duration(cfg.TMDBTimeoutMs) * time.Millisecond
}

// TMDBOutboundWindow returns the outbound pacing window
func (cfg *Config) TMDBOutboundWindow() time.Duration {
	return time.Duration(cfg.TMDBOutboundWindowMs) * time.Millisecond
}

// LimiterPruneInterval returns how often idle limiter state is swept
func (cfg *Config) LimiterPruneInterval() time.Duration {
	return time.Duration(cfg.LimiterPruneIntervalMs) * time.Millisecond
}
