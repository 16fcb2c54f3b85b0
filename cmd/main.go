package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/hearth/internal/adapters/http/api"
	"github.com/okian/hearth/internal/adapters/http/site"
	app "github.com/okian/hearth/internal/app"
	"github.com/okian/hearth/internal/config"
	"github.com/okian/hearth/pkg/logger"
	"github.com/okian/hearth/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// Use stderr since the logger may not be configured yet
		_, _ = fmt.Fprintln(os.Stderr, "hearth: "+err.Error())
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hearth",
		Short: "Serve the hearth site",
		Long: `hearth serves a templated home page, static assets, health probes and
Prometheus metrics.

Configuration is layered: defaults, then the YAML file named by --config or
HEARTH_CONFIG, then HEARTH_* environment variables, then flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := setup(ctx, cmd)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
			}
			return serve(ctx, cfg, ln)
		},
	}
	config.BindFlags(cmd.Flags())
	return cmd
}

// setup initializes logging and loads configuration.
func setup(ctx context.Context, cmd *cobra.Command) (*config.Config, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.Load(ctx, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.LogFormat != config.LogFormatText {
		if err := logger.InitWithWriter(cmd.OutOrStdout(), cfg.LogFormat); err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// serve runs the startup sequence on ln and blocks until ctx is cancelled.
// Readiness is signalled only after templates are loaded and ln is bound.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	log := logger.Get()
	defer func() {
		_ = logger.Sync()
	}()

	svc := app.New(
		app.WithLogger(logger.Named("app")),
		app.WithDevelopment(cfg.Development()),
		app.WithAssets(site.Assets(), cfg.AssetDir),
		app.WithTemplates(site.Templates(), cfg.TemplateDir),
	)
	if err := svc.Start(ctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to start service: %w", err)
	}

	m := metrics.NewManager(metrics.WithRefreshInterval(time.Duration(cfg.MetricsIntervalMS) * time.Millisecond))
	go m.Run(ctx)

	apiServer := api.NewServer(svc,
		api.WithMetrics(m),
		api.WithLogger(logger.Named("http")),
		api.WithTraceHeaders(cfg.TraceHeaders),
	)

	srv := &http.Server{
		Handler:           apiServer.Handler(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	svc.MarkReady()

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", ln.Addr().String()),
			logger.String("mode", cfg.Mode),
		)
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info(ctx, "server stopped")
	return nil
}
