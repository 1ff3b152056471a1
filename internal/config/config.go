// Package config provides layered configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the resolved configuration injected into the client layer.
type Config struct {
	// API settings
	BaseURL string `json:"base_url"`

	// Timeouts and the proactive refresh buffer
	RequestTimeout time.Duration `json:"request_timeout"`
	RefreshBuffer  time.Duration `json:"refresh_buffer"`
	ProbeTimeout   time.Duration `json:"probe_timeout"`

	// Output settings
	Format string `json:"format"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceGlobal  Source = "global"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	BaseURL string
	Timeout time.Duration
	Format  string
}

// Defaults.
const (
	DefaultBaseURL        = "https://api.liftlog.fit"
	DefaultRequestTimeout = 10 * time.Second
	DefaultRefreshBuffer  = 5 * time.Minute
	DefaultProbeTimeout   = 3 * time.Second
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		RequestTimeout: DefaultRequestTimeout,
		RefreshBuffer:  DefaultRefreshBuffer,
		ProbeTimeout:   DefaultProbeTimeout,
		Format:         "json",
		Sources:        make(map[string]string),
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > .env file > global config file > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, globalConfigPath())

	// A .env in the working directory feeds the env overlay below.
	// Already-set variables win, so the real environment keeps precedence.
	_ = godotenv.Load()

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	ApplyOverrides(cfg, overrides)

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config location
	if err != nil {
		return // File doesn't exist, skip
	}

	var fileCfg map[string]any
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	if v, ok := fileCfg["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
		cfg.Sources["base_url"] = string(SourceGlobal)
	}
	if d := getDuration(fileCfg, "request_timeout"); d > 0 {
		cfg.RequestTimeout = d
		cfg.Sources["request_timeout"] = string(SourceGlobal)
	}
	if d := getDuration(fileCfg, "refresh_buffer"); d > 0 {
		cfg.RefreshBuffer = d
		cfg.Sources["refresh_buffer"] = string(SourceGlobal)
	}
	if d := getDuration(fileCfg, "probe_timeout"); d > 0 {
		cfg.ProbeTimeout = d
		cfg.Sources["probe_timeout"] = string(SourceGlobal)
	}
	if v, ok := fileCfg["format"].(string); ok && v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(SourceGlobal)
	}
}

// envOverlay mirrors the Config fields settable from the environment
// (LIFTLOG_BASE_URL, LIFTLOG_REQUEST_TIMEOUT, ...).
type envOverlay struct {
	BaseURL        string        `envconfig:"BASE_URL"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT"`
	RefreshBuffer  time.Duration `envconfig:"REFRESH_BUFFER"`
	ProbeTimeout   time.Duration `envconfig:"PROBE_TIMEOUT"`
	Format         string        `envconfig:"FORMAT"`
}

func loadFromEnv(cfg *Config) error {
	var env envOverlay
	if err := envconfig.Process("liftlog", &env); err != nil {
		return fmt.Errorf("invalid environment configuration: %w", err)
	}

	if env.BaseURL != "" {
		cfg.BaseURL = env.BaseURL
		cfg.Sources["base_url"] = string(SourceEnv)
	}
	if env.RequestTimeout > 0 {
		cfg.RequestTimeout = env.RequestTimeout
		cfg.Sources["request_timeout"] = string(SourceEnv)
	}
	if env.RefreshBuffer > 0 {
		cfg.RefreshBuffer = env.RefreshBuffer
		cfg.Sources["refresh_buffer"] = string(SourceEnv)
	}
	if env.ProbeTimeout > 0 {
		cfg.ProbeTimeout = env.ProbeTimeout
		cfg.Sources["probe_timeout"] = string(SourceEnv)
	}
	if env.Format != "" {
		cfg.Format = env.Format
		cfg.Sources["format"] = string(SourceEnv)
	}
	return nil
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
		cfg.Sources["base_url"] = string(SourceFlag)
	}
	if o.Timeout > 0 {
		cfg.RequestTimeout = o.Timeout
		cfg.Sources["request_timeout"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
}

// getDuration extracts a duration that may be a Go duration string ("10s")
// or a number of milliseconds in JSON.
func getDuration(m map[string]any, key string) time.Duration {
	v, ok := m[key]
	if !ok || v == nil {
		return 0
	}
	switch val := v.(type) {
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0
		}
		return d
	case float64:
		return time.Duration(val) * time.Millisecond
	default:
		return 0
	}
}

// Path helpers

func globalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.json")
}

// GlobalConfigDir returns the global config directory path.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "liftlog")
}

// NormalizeBaseURL ensures a consistent URL format: no trailing slash,
// and bare hostnames get a scheme (http for loopback, https otherwise).
func NormalizeBaseURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	if url == "" || strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	if isLoopback(url) {
		return "http://" + url
	}
	return "https://" + url
}

// isLoopback matches localhost, .localhost subdomains, 127.0.0.1, and
// bracketed [::1], each with an optional port.
func isLoopback(host string) bool {
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		if !strings.HasPrefix(host, "[") || strings.HasPrefix(host, "[::1]:") {
			host = host[:idx]
		}
	}
	return host == "localhost" || strings.HasSuffix(host, ".localhost") ||
		host == "127.0.0.1" || host == "[::1]"
}
