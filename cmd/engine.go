package cmd

import (
	"context"
	"errors"
	"fmt"

	"scanmate/core/config"
	"scanmate/core/logger"
	"scanmate/core/storage"
	"scanmate/feature/archive"
	"scanmate/feature/exporter"
	"scanmate/feature/importer"
	"scanmate/feature/inventory"
	"scanmate/feature/logbuffer"
	"scanmate/feature/remote"
	"scanmate/feature/sales"
	"scanmate/feature/scanning"
	"scanmate/feature/session"

	"go.uber.org/zap"
)

// engine is the wired set of components every command works with.
type engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	router   *inventory.Router
	buffer   *logbuffer.Buffer
	pipeline *scanning.Pipeline
	loader   *importer.Loader
	exporter *exporter.Exporter
	syncer   *remote.Syncer
	archive  *archive.Service
	sales    *sales.Store
}

// loadEngine reads the configuration from the working directory and opens
// both mode stores. Archive and remote sync are wired only when configured.
func loadEngine(ctx context.Context) (*engine, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	l = l.With(zap.String("device", cfg.Server.DeviceID))

	router, err := inventory.OpenRouter(cfg.Database, l)
	if err != nil {
		return nil, fmt.Errorf("failed to open stores: %w", err)
	}

	salesStore, err := sales.Open(cfg.Database.WithFile(cfg.Database.SalesFile), l)
	if err != nil {
		_ = router.Close()
		return nil, err
	}

	e := &engine{cfg: cfg, logger: l, router: router, sales: salesStore}
	e.buffer = logbuffer.New(logbuffer.ForRouter(router), cfg.Buffer, l)
	e.pipeline = scanning.New(router, e.buffer, nil, nil, cfg.Scanner, l)
	e.loader = importer.New(router, e.buffer, l)
	e.exporter = exporter.New(router, e.buffer, cfg.Export, l)

	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			_ = errors.Join(router.Close(), salesStore.Close())
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		e.archive = archive.NewService(client, cfg.Storage, cfg.Server.DeviceID, l)
		if err := e.archive.EnsureBucket(ctx); err != nil {
			l.Warn("Archive bucket unavailable, uploads will be retried per artifact", zap.Error(err))
		}
		e.loader.WithArchive(e.archive)
		e.exporter.WithArchive(e.archive)
	}

	client, err := remote.NewClient(cfg.Remote, l)
	switch {
	case errors.Is(err, remote.ErrNotConfigured):
		l.Debug("Remote sync disabled")
	case err != nil:
		_ = errors.Join(router.Close(), salesStore.Close())
		return nil, err
	default:
		e.syncer = remote.NewSyncer(client, router, e.loader, e.buffer, l)
	}

	return e, nil
}

// session builds the device session service over the engine.
func (e *engine) session() *session.Service {
	deps := session.Deps{
		Router:   e.router,
		Pipeline: e.pipeline,
		Buffer:   e.buffer,
		Loader:   e.loader,
		Exporter: e.exporter,
		Syncer:   e.syncer,
		Sales:    e.sales,
		Remote:   e.cfg.Remote,
	}
	if e.archive != nil {
		deps.Archive = e.archive
	}
	return session.NewService(deps, e.logger)
}

// mode parses the --mode flag.
func (e *engine) mode() (inventory.Mode, error) {
	return inventory.ParseMode(modeFlag)
}

// close flushes buffered logs and releases every store.
func (e *engine) close(ctx context.Context) error {
	err := errors.Join(e.buffer.Stop(ctx), e.router.Close(), e.sales.Close())
	_ = e.logger.Sync()
	return err
}
