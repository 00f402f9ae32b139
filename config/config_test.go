package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, DefaultStreamURL, cfg.Stream.URL)
	assert.Equal(t, DefaultSampleRate, cfg.Stream.SampleRate)
	assert.Equal(t, OutputFormatText, cfg.OutputFormat)
	assert.Equal(t, time.Second, cfg.Stream.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.Stream.MaxBackoff)
	assert.True(t, cfg.Session.CheckpointRefOneBased)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FACIL_CONFIG_DIR", dir)

	content := `
data_dir: /tmp/facil-data
backend_url: http://backend:9000
timeout: 45s
output_format: json
log_json: true
stream:
  url: ws://stream:7000/ws
  sample_rate: 44100
  initial_backoff: 500ms
  max_backoff: 10s
  backoff_multiplier: 1.5
session:
  checkpoint_ref_one_based: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/facil-data", cfg.DataDir)
	assert.Equal(t, "http://backend:9000", cfg.BackendURL)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, OutputFormatJSON, cfg.OutputFormat)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, "ws://stream:7000/ws", cfg.Stream.URL)
	assert.Equal(t, 44100, cfg.Stream.SampleRate)
	assert.Equal(t, 500*time.Millisecond, cfg.Stream.InitialBackoff)
	assert.Equal(t, 10*time.Second, cfg.Stream.MaxBackoff)
	assert.Equal(t, 1.5, cfg.Stream.BackoffMultiplier)
	assert.False(t, cfg.Session.CheckpointRefOneBased)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FACIL_CONFIG_DIR", dir)
	t.Setenv("FACIL_BACKEND_URL", "http://env-backend:1234")
	t.Setenv("FACIL_STREAM_URL", "ws://env-stream/ws")
	t.Setenv("FACIL_OUTPUT_FORMAT", "json")
	t.Setenv("FACIL_DEBUG", "1")
	t.Setenv("FACIL_SAMPLE_RATE", "8000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://env-backend:1234", cfg.BackendURL)
	assert.Equal(t, "ws://env-stream/ws", cfg.Stream.URL)
	assert.Equal(t, OutputFormatJSON, cfg.OutputFormat)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 8000, cfg.Stream.SampleRate)
}

func TestLoadConfigDefaultsDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FACIL_CONFIG_DIR", dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad output format", func(c *Config) { c.OutputFormat = "xml" }, "invalid output format"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be positive"},
		{"zero sample rate", func(c *Config) { c.Stream.SampleRate = 0 }, "sample rate"},
		{"max below initial", func(c *Config) { c.Stream.MaxBackoff = time.Millisecond }, "backoff bounds"},
		{"multiplier below one", func(c *Config) { c.Stream.BackoffMultiplier = 0.5 }, "multiplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FACIL_CONFIG_DIR", dir)

	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/facil-rt"
	cfg.BackendURL = "http://rt:8000"
	cfg.Stream.MaxBackoff = 20 * time.Second
	cfg.Session.CheckpointRefOneBased = false
	require.NoError(t, cfg.Save())

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/facil-rt", loaded.DataDir)
	assert.Equal(t, "http://rt:8000", loaded.BackendURL)
	assert.Equal(t, 20*time.Second, loaded.Stream.MaxBackoff)
	assert.False(t, loaded.Session.CheckpointRefOneBased)
}
