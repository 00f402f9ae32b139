package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/facilita/facil-cli/pkg/server"
)

// Serve command flags.
var serveAddress string

// NewServeCommand creates the serve command.
func NewServeCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document store over HTTP",
		Long: `Serve the document store over HTTP for the web dashboard.

Exposes agenda CRUD, accepted-agenda intake, meeting snapshot intake,
and the stats feeds, plus /healthz and Prometheus /metrics.

Examples:
  facil serve
  facil serve --address 0.0.0.0:3100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.load()
			if err != nil {
				return err
			}

			addr := cfg.ServeAddress
			if serveAddress != "" {
				addr = serveAddress
			}

			log, closeLog := newLogger(cfg, "server")
			defer closeLog()

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			srv := server.New(deps.OpenStore(cfg), log, registry)
			return srv.Start(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&serveAddress, "address", "", "Listen address (default from config)")
	return cmd
}
