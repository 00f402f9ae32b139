// Package cmd provides CLI commands for the facil tool.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/facilita/facil-cli/client"
	"github.com/facilita/facil-cli/config"
	"github.com/facilita/facil-cli/pkg/logging"
	"github.com/facilita/facil-cli/pkg/store"
)

// Deps holds shared dependencies for commands, swappable in tests.
type Deps struct {
	Config     *config.Config
	LoadConfig func() (*config.Config, error)

	// OpenStore opens the document store for the loaded config.
	OpenStore func(cfg *config.Config) *store.Store

	// NewBackend creates the AI backend client.
	NewBackend func(cfg *config.Config) *client.Client

	Logger logging.Logger
}

// DefaultDeps returns production dependencies.
func DefaultDeps() *Deps {
	return &Deps{
		LoadConfig: config.LoadConfig,
		OpenStore: func(cfg *config.Config) *store.Store {
			return store.New(cfg.DataDir)
		},
		NewBackend: func(cfg *config.Config) *client.Client {
			return client.New(cfg.BackendURL, cfg.Timeout, nil)
		},
	}
}

// newLogger builds the command logger from config. The returned closer
// flushes the file sink, when one is configured.
func newLogger(cfg *config.Config, component string) (logging.Logger, func()) {
	logCfg := logging.DefaultConfig()
	logCfg.Component = component
	logCfg.JSONFormat = cfg.LogJSON
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug
	}

	closer := func() {}
	if cfg.LogFile != "" {
		sink := logging.NewFileSink(logging.FileSinkConfig{Path: cfg.LogFile})
		logCfg.Sinks = []logging.Sink{sink}
		closer = func() { sink.Close() }
	}

	return logging.NewLogger(logCfg), closer
}

// load resolves the configuration once per invocation.
func (d *Deps) load() (*config.Config, error) {
	if d.Config != nil {
		return d.Config, nil
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	d.Config = cfg
	return cfg, nil
}

// resolveFormat picks the output format: command flag over config default.
func resolveFormat(cfg *config.Config, flag string) (config.OutputFormat, error) {
	if flag == "" {
		return cfg.OutputFormat, nil
	}
	format := config.OutputFormat(flag)
	if !format.IsValid() {
		return "", fmt.Errorf("invalid output format: %s (want text or json)", flag)
	}
	return format, nil
}

// writeJSON renders v as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens s for table columns.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
