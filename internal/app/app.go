// Package app wires configuration, the vocabulary registry, the gradebook
// service, the workbook watcher, and the HTTP API into one runnable unit.
package app

import (
	"context"
	"fmt"

	"markbook/internal/config"
	"markbook/internal/gate"
	"markbook/internal/gradebook"
	"markbook/internal/logger"
	"markbook/internal/schema"
	"markbook/internal/source"
	apihttp "markbook/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

// App owns the long-running pieces of the service.
type App struct {
	cfg     *config.Config
	svc     *gradebook.Service
	httpSrv *apihttp.Server
	watcher *source.Watcher
	Summary *StartupSummary
}

// New builds the application from config without starting anything.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	var registry *schema.Registry
	if cfg.Vocabulary.Path != "" {
		r, err := schema.NewRegistry(cfg.Vocabulary.Path)
		if err != nil {
			return nil, fmt.Errorf("vocabulary registry: %w", err)
		}
		registry = r
	}

	g, err := gateFromConfig(cfg.Auth)
	if err != nil {
		return nil, err
	}

	svc := gradebook.New(gradebook.Options{
		Registry: registry,
		Fetcher:  source.NewFetcher(cfg.Workbook.FetchTimeout()),
		Gate:     g,
		MemoTTL:  cfg.Workbook.CacheTTL(),
	})

	httpSrv, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Service: svc,
	})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, svc: svc, httpSrv: httpSrv}
	if cfg.Workbook.Watch {
		path := cfg.Workbook.Path
		w, err := source.NewWatcher(path, func() {
			if _, err := svc.LoadFile(path); err != nil {
				logger.Errorf("[watch] workbook reload failed: %v", err)
			}
		})
		if err != nil {
			return nil, err
		}
		a.watcher = w
	}
	a.Summary = buildSummary(cfg, registry)
	return a, nil
}

func gateFromConfig(cfg config.AuthConfig) (gate.Gate, error) {
	var mode gate.Mode
	switch cfg.Mode {
	case "credentials", "":
		mode = gate.ModeCredentials
	case "shared":
		mode = gate.ModeShared
	case "open":
		mode = gate.ModeOpen
	default:
		return gate.Gate{}, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
	return gate.Gate{
		Mode:          mode,
		SharedCode:    cfg.SharedCode,
		RequireSecret: cfg.RequireSecret,
	}, nil
}

// Run loads the configured workbook and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}

	if a.Summary != nil {
		a.Summary.Print()
	}

	a.loadInitialWorkbook(ctx)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("api http server error: %w", err)
		}
		return nil
	})
	if a.watcher != nil {
		group.Go(func() error {
			return a.watcher.Run(ctx)
		})
	}
	return group.Wait()
}

// loadInitialWorkbook loads the configured source once. Failures are logged
// rather than fatal: the service stays up for uploads, and in watch mode the
// next file change retries.
func (a *App) loadInitialWorkbook(ctx context.Context) {
	switch {
	case a.cfg.Workbook.Path != "":
		if _, err := a.svc.LoadFile(a.cfg.Workbook.Path); err != nil {
			logger.Warnf("[app] initial workbook load failed (%s): %v", a.cfg.Workbook.Path, err)
		}
	case a.cfg.Workbook.URL != "":
		if _, err := a.svc.LoadURL(ctx, a.cfg.Workbook.URL); err != nil {
			logger.Warnf("[app] initial workbook fetch failed: %v", err)
		}
	}
}

// Service exposes the gradebook service instance (for the inspect command
// and tests).
func (a *App) Service() *gradebook.Service {
	if a == nil {
		return nil
	}
	return a.svc
}
