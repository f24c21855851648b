package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "gridsync-logstream/internal/infrastructure/config"
	httpapi "gridsync-logstream/internal/infrastructure/httpapi"
)

func newServeCmd(f *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream the node log and expose it over the diagnostics API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "diagnostics API listen address")
	return cmd
}

func runServe(ctx context.Context, cfg cfgpkg.Config) error {
	monitor := httpapi.NewMonitorHub()
	defer monitor.Close()
	a := newApp(cfg, os.Stdout, monitor)
	logger := a.logger
	logger.Info().Str("addr", cfg.Server.Addr).Msg("starting logstream")

	deps := &httpapi.Deps{Cfg: cfg, Logger: logger, Metrics: a.metrics, Stream: a.controller, Monitor: monitor}
	if a.gateway != nil {
		deps.Node = a.gateway
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewRouterWithDeps(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.Stream.Autostart {
		a.controller.Start()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-stop:
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("log stream shutdown error")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("logstream stopped")
	return runErr
}
