package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"gridsync-logstream/internal/adapters/node"
	"gridsync-logstream/internal/adapters/scheduler"
	"gridsync-logstream/internal/adapters/storage/memory"
	"gridsync-logstream/internal/adapters/transport/wsdial"
	cfgpkg "gridsync-logstream/internal/infrastructure/config"
	obs "gridsync-logstream/internal/infrastructure/observability"
	"gridsync-logstream/internal/usecase"
	"gridsync-logstream/pkg/shared/redact"
)

type app struct {
	cfg        cfgpkg.Config
	logger     *zerolog.Logger
	metrics    *obs.Metrics
	store      *memory.Store
	gateway    *node.Gateway // nil when reading node.url from a directory
	controller *usecase.Controller
}

func loadConfig(f *rootFlags) (cfgpkg.Config, error) {
	cfg, err := cfgpkg.Load(f.configFile)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	if f.nodeURL != "" {
		cfg.Node.URL = f.nodeURL
	}
	if f.nodeDir != "" {
		cfg.Node.Dir = f.nodeDir
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if cfg.Node.URL == "" && cfg.Node.Dir == "" {
		return cfgpkg.Config{}, errors.New("one of --node-url or --node-dir (NODE_URL / NODE_DIR) is required")
	}
	return cfg, nil
}

// newApp wires the stream controller; process logs go to logOut.
func newApp(cfg cfgpkg.Config, logOut io.Writer, extra ...usecase.Observer) *app {
	logger := obs.NewLogger(logOut, cfg.Log.Level, cfg.Log.File)
	metrics := obs.NewMetrics()

	store := memory.NewStore(cfg.Stream.MaxRecords)
	store.SetEvictionHook(metrics.RecordsEvicted)

	a := &app{cfg: cfg, logger: logger, metrics: metrics, store: store}

	var src usecase.NodeURLSource
	if cfg.Node.Dir != "" {
		fs := node.NewFileSource(cfg.Node.Dir)
		logger.Info().Str("file", fs.Path()).Msg("logstream: reading node address from node directory")
		src = fs
	} else {
		a.gateway = node.NewGateway(cfg.Node.URL)
		logger.Info().Str("node", redact.URL(cfg.Node.URL)).Msg("logstream: using configured node address")
		src = a.gateway
	}

	dialer := wsdial.New(wsdial.Options{
		HandshakeTimeout: cfg.Stream.HandshakeTimeout,
		PingInterval:     cfg.Stream.PingInterval,
	})
	a.controller = usecase.NewController(usecase.ControllerDeps{
		Node:       src,
		Dialer:     dialer,
		Scheduler:  scheduler.New(clock.New()),
		Records:    store,
		Logger:     logger,
		Observers:  append([]usecase.Observer{metrics}, extra...),
		StreamPath: cfg.Stream.Path,
		Retry: usecase.RetryPolicy{
			Initial:    cfg.Stream.RetryDelay,
			Max:        cfg.Stream.RetryMaxDelay,
			Multiplier: cfg.Stream.RetryMultiplier,
		},
	})
	return a
}

func (a *app) shutdown(ctx context.Context) error {
	if err := a.controller.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop log stream: %w", err)
	}
	return nil
}
