// Package server exposes the document store over HTTP for the web
// dashboard: agenda CRUD, accepted-agenda intake, meeting snapshot
// intake, and the stats feeds behind the dashboard charts.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/facilita/facil-cli/pkg/buildinfo"
	"github.com/facilita/facil-cli/pkg/logging"
	"github.com/facilita/facil-cli/pkg/store"
)

// Server is the HTTP facade over the document store.
type Server struct {
	echo *echo.Echo
	log  logging.Logger
}

// New builds the server with routes registered. The prometheus registry
// may be nil, in which case the default registry backs /metrics.
func New(st *store.Store, log logging.Logger, registry *prometheus.Registry) *Server {
	if log == nil {
		log = logging.NewNopLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h := &Handler{store: st, log: log}
	h.Register(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/version", echo.WrapHandler(buildinfo.Handler("facil")))

	var metricsHandler http.Handler
	if registry != nil {
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	} else {
		metricsHandler = promhttp.Handler()
	}
	e.GET("/metrics", echo.WrapHandler(metricsHandler))

	return &Server{echo: e, log: log}
}

// Start serves on addr until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	s.log.Info("http server listening", logging.F("address", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}
