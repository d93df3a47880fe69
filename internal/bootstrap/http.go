package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tallyworks/backoffice-api/config"
	httpx "github.com/tallyworks/backoffice-api/internal/http"
)

const (
	defaultHTTPAddr = ":8080"

	httpReadTimeout     = 30 * time.Second
	httpWriteTimeout    = 30 * time.Second
	httpIdleTimeout     = 120 * time.Second
	httpShutdownTimeout = 10 * time.Second
)

// HTTPServerConfig carries everything StartHTTPServer needs.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer builds the middleware-wrapped router and begins serving
// in the background. The returned server is later handed to
// ShutdownHTTPServer; a nil config yields a nil server.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	router := httpx.NewRouter(httpx.RouterServices{
		Reports: cfg.Services.Reports,
		Tickets: cfg.Services.Tickets,
		DB:      cfg.Services.DB,
		Logger:  logger,
	})

	addr := appCfg.HTTP.Addr
	if addr == "" {
		addr = defaultHTTPAddr
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      wrapRouter(logger, appCfg.HTTP, router),
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()
	return server
}

// wrapRouter layers the shared middleware around the router. Compression
// sits innermost so the request log records compressed byte counts.
func wrapRouter(logger *slog.Logger, cfg config.HTTPConfig, h http.Handler) http.Handler {
	if cfg.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", cfg.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.CompressionLevel})(h)
	}
	h = httpx.Logging(logger)(h)
	h = httpx.Recover(logger)(h)
	return h
}

// ShutdownConfig carries the dependencies for a graceful HTTP stop.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer drains in-flight requests and stops the server. The
// report pipeline is closed separately once every submitter, HTTP included,
// has stopped.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("shutting down HTTP server")

	ctx, cancel := context.WithTimeout(cfg.Context, httpShutdownTimeout)
	defer cancel()
	if err := cfg.Server.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info("HTTP server stopped")
	return nil
}
