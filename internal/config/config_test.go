package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points the config loader at an empty temp dir and clears
// the LIFTLOG_* variables the loader reads.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, key := range []string{
		"LIFTLOG_BASE_URL",
		"LIFTLOG_REQUEST_TIMEOUT",
		"LIFTLOG_REFRESH_BUFFER",
		"LIFTLOG_PROBE_TIMEOUT",
		"LIFTLOG_FORMAT",
	} {
		t.Setenv(key, "") // registers the restore
		os.Unsetenv(key)
	}
	return dir
}

func writeGlobalConfig(t *testing.T, configHome string, cfg map[string]any) {
	t.Helper()
	dir := filepath.Join(configHome, "liftlog")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644))
}

func TestDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, DefaultRefreshBuffer, cfg.RefreshBuffer)
	assert.Equal(t, DefaultProbeTimeout, cfg.ProbeTimeout)
	assert.Equal(t, "json", cfg.Format)
	assert.Empty(t, cfg.Sources)
}

func TestGlobalConfigFile(t *testing.T) {
	home := isolateEnv(t)
	writeGlobalConfig(t, home, map[string]any{
		"base_url":        "https://staging.liftlog.fit",
		"request_timeout": "30s",
		"refresh_buffer":  120000, // milliseconds
	})

	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)

	assert.Equal(t, "https://staging.liftlog.fit", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.RefreshBuffer)
	assert.Equal(t, string(SourceGlobal), cfg.Sources["base_url"])
	assert.Equal(t, string(SourceGlobal), cfg.Sources["request_timeout"])
}

func TestMalformedGlobalConfigIsSkipped(t *testing.T) {
	home := isolateEnv(t)
	dir := filepath.Join(home, "liftlog")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o644))

	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestEnvOverridesFile(t *testing.T) {
	home := isolateEnv(t)
	writeGlobalConfig(t, home, map[string]any{"base_url": "https://from-file.example"})

	t.Setenv("LIFTLOG_BASE_URL", "https://from-env.example")
	t.Setenv("LIFTLOG_REQUEST_TIMEOUT", "15s")

	cfg, err := Load(FlagOverrides{})
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, string(SourceEnv), cfg.Sources["base_url"])
}

func TestFlagsOverrideEverything(t *testing.T) {
	home := isolateEnv(t)
	writeGlobalConfig(t, home, map[string]any{"base_url": "https://from-file.example"})
	t.Setenv("LIFTLOG_BASE_URL", "https://from-env.example")

	cfg, err := Load(FlagOverrides{
		BaseURL: "https://from-flag.example",
		Timeout: 42 * time.Second,
		Format:  "yaml",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://from-flag.example", cfg.BaseURL)
	assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, string(SourceFlag), cfg.Sources["base_url"])
}

func TestInvalidEnvDuration(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LIFTLOG_REQUEST_TIMEOUT", "not-a-duration")

	_, err := Load(FlagOverrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment configuration")
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want time.Duration
	}{
		{"duration string", "10s", 10 * time.Second},
		{"milliseconds number", float64(1500), 1500 * time.Millisecond},
		{"bad string", "soon", 0},
		{"nil", nil, 0},
		{"wrong type", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := map[string]any{"k": tt.val}
			assert.Equal(t, tt.want, getDuration(m, "k"))
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://api.liftlog.fit/", "https://api.liftlog.fit"},
		{"https://api.liftlog.fit", "https://api.liftlog.fit"},
		{"http://localhost:8000/", "http://localhost:8000"},
		{"api.liftlog.fit", "https://api.liftlog.fit"},
		{"localhost:8000", "http://localhost:8000"},
		{"127.0.0.1:8000", "http://127.0.0.1:8000"},
		{"[::1]:8000", "http://[::1]:8000"},
		{"api.localhost", "http://api.localhost"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBaseURL(tt.input), "input %q", tt.input)
	}
}
