// Package config provides CLI configuration management for the facil command-line tool.
// It supports loading configuration from YAML files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
)

// IsValid reports whether the format is a supported output format.
func (f OutputFormat) IsValid() bool {
	return f == OutputFormatText || f == OutputFormatJSON
}

// Default configuration values.
const (
	DefaultBackendURL   = "http://localhost:8000"
	DefaultStreamURL    = "ws://localhost:8765/ws"
	DefaultServeAddress = "localhost:3100"
	DefaultTimeout      = 2 * time.Minute
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".facil"
	DefaultConfigFile   = "config.yaml"
	DefaultSampleRate   = 16000
)

// StreamConfig holds transcription stream settings.
type StreamConfig struct {
	// URL is the WebSocket endpoint of the transcription service.
	URL string `yaml:"url"`

	// SampleRate is the PCM sample rate (Hz) negotiated with the service.
	SampleRate int `yaml:"sample_rate"`

	// InitialBackoff is the first reconnect delay after an unexpected close.
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// MaxBackoff caps the reconnect delay.
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// BackoffMultiplier scales the delay between attempts (1.5–2 is sensible).
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// SessionConfig holds live-session behavior settings.
type SessionConfig struct {
	// CheckpointRefOneBased selects the numeric checkpoint-ref convention:
	// when true, ref 1 fulfills the first checklist item. The external
	// service's contract is ambiguous here, so it is configurable rather
	// than hard-coded.
	CheckpointRefOneBased bool `yaml:"checkpoint_ref_one_based"`
}

// Config holds the facil CLI configuration settings.
type Config struct {
	// DataDir is the root of the flat-JSON document store
	// (agendas/, meetings/, stats/ live underneath it).
	DataDir string `yaml:"data_dir"`

	// BackendURL is the base URL of the agenda-generation backend.
	BackendURL string `yaml:"backend_url"`

	// ServeAddress is the listen address for `facil serve`.
	ServeAddress string `yaml:"serve_address"`

	// Timeout is the default timeout for backend API requests.
	Timeout time.Duration `yaml:"timeout"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// LogJSON switches log output from console format to JSON.
	LogJSON bool `yaml:"log_json,omitempty"`

	// LogFile, when set, mirrors all log entries to a JSONL file.
	LogFile string `yaml:"log_file,omitempty"`

	// Stream contains transcription stream settings.
	Stream StreamConfig `yaml:"stream"`

	// Session contains live-session behavior settings.
	Session SessionConfig `yaml:"session"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		BackendURL:   DefaultBackendURL,
		ServeAddress: DefaultServeAddress,
		Timeout:      DefaultTimeout,
		OutputFormat: DefaultOutputFormat,
		Stream: StreamConfig{
			URL:               DefaultStreamURL,
			SampleRate:        DefaultSampleRate,
			InitialBackoff:    time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2,
		},
		Session: SessionConfig{
			CheckpointRefOneBased: true,
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $FACIL_CONFIG_DIR if set, otherwise ~/.facil
func ConfigDir() (string, error) {
	if dir := os.Getenv("FACIL_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.facil/config.yaml or $FACIL_CONFIG_DIR/config.yaml)
// 3. Environment variables (FACIL_DATA_DIR, FACIL_BACKEND_URL, ...)
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	// DataDir defaults next to the config dir so a bare install works.
	if cfg.DataDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = filepath.Join(dir, "data")
	}
	cfg.DataDir = expandPath(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// Temp struct so durations can be written as strings ("30s").
	type streamFile struct {
		URL               string  `yaml:"url"`
		SampleRate        int     `yaml:"sample_rate"`
		InitialBackoff    string  `yaml:"initial_backoff"`
		MaxBackoff        string  `yaml:"max_backoff"`
		BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	}
	type configFile struct {
		DataDir      string         `yaml:"data_dir"`
		BackendURL   string         `yaml:"backend_url"`
		ServeAddress string         `yaml:"serve_address"`
		Timeout      string         `yaml:"timeout"`
		OutputFormat OutputFormat   `yaml:"output_format"`
		Debug        bool           `yaml:"debug"`
		LogJSON      bool           `yaml:"log_json"`
		LogFile      string         `yaml:"log_file"`
		Stream       *streamFile    `yaml:"stream"`
		Session      *SessionConfig `yaml:"session"`
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.DataDir != "" {
		cfg.DataDir = fileCfg.DataDir
	}
	if fileCfg.BackendURL != "" {
		cfg.BackendURL = fileCfg.BackendURL
	}
	if fileCfg.ServeAddress != "" {
		cfg.ServeAddress = fileCfg.ServeAddress
	}
	if fileCfg.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.Timeout = timeout
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	cfg.Debug = fileCfg.Debug
	cfg.LogJSON = fileCfg.LogJSON
	if fileCfg.LogFile != "" {
		cfg.LogFile = fileCfg.LogFile
	}

	if fileCfg.Stream != nil {
		if fileCfg.Stream.URL != "" {
			cfg.Stream.URL = fileCfg.Stream.URL
		}
		if fileCfg.Stream.SampleRate > 0 {
			cfg.Stream.SampleRate = fileCfg.Stream.SampleRate
		}
		if fileCfg.Stream.InitialBackoff != "" {
			d, err := time.ParseDuration(fileCfg.Stream.InitialBackoff)
			if err != nil {
				return fmt.Errorf("parsing initial_backoff: %w", err)
			}
			cfg.Stream.InitialBackoff = d
		}
		if fileCfg.Stream.MaxBackoff != "" {
			d, err := time.ParseDuration(fileCfg.Stream.MaxBackoff)
			if err != nil {
				return fmt.Errorf("parsing max_backoff: %w", err)
			}
			cfg.Stream.MaxBackoff = d
		}
		if fileCfg.Stream.BackoffMultiplier > 0 {
			cfg.Stream.BackoffMultiplier = fileCfg.Stream.BackoffMultiplier
		}
	}

	if fileCfg.Session != nil {
		cfg.Session = *fileCfg.Session
	}

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("FACIL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv("FACIL_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}

	if v := os.Getenv("FACIL_SERVE_ADDRESS"); v != "" {
		cfg.ServeAddress = v
	}

	if v := os.Getenv("FACIL_STREAM_URL"); v != "" {
		cfg.Stream.URL = v
	}

	if v := os.Getenv("FACIL_SAMPLE_RATE"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			cfg.Stream.SampleRate = rate
		}
	}

	if v := os.Getenv("FACIL_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = timeout
		}
	}

	if v := os.Getenv("FACIL_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("FACIL_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	if v := os.Getenv("FACIL_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	if v := os.Getenv("FACIL_LOG_JSON"); v == "true" || v == "1" {
		cfg.LogJSON = true
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.OutputFormat {
	case OutputFormatText, OutputFormatJSON:
	default:
		return fmt.Errorf("invalid output format %q (want text or json)", c.OutputFormat)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	if c.Stream.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.Stream.SampleRate)
	}

	if c.Stream.InitialBackoff <= 0 || c.Stream.MaxBackoff < c.Stream.InitialBackoff {
		return fmt.Errorf("backoff bounds invalid: initial=%v max=%v",
			c.Stream.InitialBackoff, c.Stream.MaxBackoff)
	}

	if c.Stream.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff multiplier must be >= 1, got %v", c.Stream.BackoffMultiplier)
	}

	return nil
}

// Save writes the configuration to the config file, creating the
// config directory if needed.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(dir, DefaultConfigFile)

	type streamFile struct {
		URL               string  `yaml:"url"`
		SampleRate        int     `yaml:"sample_rate"`
		InitialBackoff    string  `yaml:"initial_backoff"`
		MaxBackoff        string  `yaml:"max_backoff"`
		BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	}
	out := struct {
		DataDir      string        `yaml:"data_dir,omitempty"`
		BackendURL   string        `yaml:"backend_url"`
		ServeAddress string        `yaml:"serve_address"`
		Timeout      string        `yaml:"timeout"`
		OutputFormat OutputFormat  `yaml:"output_format"`
		Debug        bool          `yaml:"debug,omitempty"`
		LogJSON      bool          `yaml:"log_json,omitempty"`
		LogFile      string        `yaml:"log_file,omitempty"`
		Stream       streamFile    `yaml:"stream"`
		Session      SessionConfig `yaml:"session"`
	}{
		DataDir:      c.DataDir,
		BackendURL:   c.BackendURL,
		ServeAddress: c.ServeAddress,
		Timeout:      c.Timeout.String(),
		OutputFormat: c.OutputFormat,
		Debug:        c.Debug,
		LogJSON:      c.LogJSON,
		LogFile:      c.LogFile,
		Stream: streamFile{
			URL:               c.Stream.URL,
			SampleRate:        c.Stream.SampleRate,
			InitialBackoff:    c.Stream.InitialBackoff.String(),
			MaxBackoff:        c.Stream.MaxBackoff.String(),
			BackoffMultiplier: c.Stream.BackoffMultiplier,
		},
		Session: c.Session,
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path // Return original if home dir lookup fails.
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
