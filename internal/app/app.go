// Package app assembles the dashboard components and runs their background workers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nfrund/kpiboard/internal/chart"
	"github.com/nfrund/kpiboard/internal/config"
	"github.com/nfrund/kpiboard/internal/dashboard"
	"github.com/nfrund/kpiboard/internal/datasource"
	"github.com/nfrund/kpiboard/internal/events"
	"github.com/nfrund/kpiboard/internal/hub"
	"github.com/nfrund/kpiboard/internal/metrics"
	"github.com/nfrund/kpiboard/internal/pubsub"
	"github.com/nfrund/kpiboard/internal/refresh"
	"github.com/nfrund/kpiboard/internal/session"
	"github.com/nfrund/kpiboard/internal/tracing"
	"github.com/nfrund/kpiboard/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
)

// Options tune how the application is assembled. Zero values pick production defaults.
type Options struct {
	// Fs holds the session slots and the data source script. Defaults to the OS file system.
	Fs afero.Fs
	// Registry receives the dashboard metrics. Defaults to a fresh registry.
	Registry *prometheus.Registry
	// Version is reported to the tracing backend.
	Version string
}

// App is the assembled dashboard.
type App struct {
	Config    config.Provider
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Collector
	Bus       *pubsub.WatermillBridge
	Sessions  *session.Store
	Charts    *chart.SVGRenderer
	Sink      *chart.Sink
	Source    datasource.Source
	Refresher *refresh.Controller
	Dashboard *dashboard.Controller
	Hub       *hub.Hub
	Bridge    *websocket.Bridge
	Sockets   *websocket.Handler

	injector        *do.RootScope
	shutdownTracing func(context.Context) error

	mu      sync.Mutex
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// New builds every component. Nothing runs until Start.
func New(ctx context.Context, cfg config.Provider, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	tcfg := tracing.DefaultConfig()
	tcfg.Enabled = cfg.GetTracingEnabled()
	tcfg.ServiceName = cfg.GetTracingServiceName()
	tcfg.ZipkinURL = cfg.GetTracingZipkinURL()
	if opts.Version != "" {
		tcfg.Version = opts.Version
	}
	tracer, shutdownTracing, err := tracing.Setup(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}

	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, tracer)
	do.ProvideValue(injector, opts.Fs)
	do.ProvideValue(injector, opts.Registry)
	registerServices(injector)

	// The data source is the only provider that can fail (script compile errors).
	if _, err := do.Invoke[*dashboard.Controller](injector); err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("building dashboard: %w", err)
	}

	return &App{
		Config:          cfg,
		Logger:          logger,
		Registry:        opts.Registry,
		Metrics:         do.MustInvoke[*metrics.Collector](injector),
		Bus:             do.MustInvoke[*pubsub.WatermillBridge](injector),
		Sessions:        do.MustInvoke[*session.Store](injector),
		Charts:          do.MustInvoke[*chart.SVGRenderer](injector),
		Sink:            do.MustInvoke[*chart.Sink](injector),
		Source:          do.MustInvoke[datasource.Source](injector),
		Refresher:       do.MustInvoke[*refresh.Controller](injector),
		Dashboard:       do.MustInvoke[*dashboard.Controller](injector),
		Hub:             do.MustInvoke[*hub.Hub](injector),
		Bridge:          do.MustInvoke[*websocket.Bridge](injector),
		Sockets:         do.MustInvoke[*websocket.Handler](injector),
		injector:        injector,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Start runs the live push pipeline, watches the data source script and picks the
// initial view from the session store. Workers stop on Close.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.cancel != nil {
		a.mu.Unlock()
		return errors.New("app already started")
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.mu.Unlock()

	a.workers.Add(1)
	go func() {
		defer a.workers.Done()
		a.Hub.Run(runCtx)
	}()

	if err := a.Bridge.Forward(runCtx, events.All()...); err != nil {
		return fmt.Errorf("forwarding events: %w", err)
	}

	if src, ok := a.Source.(*datasource.ScriptSource); ok {
		if err := src.Watch(runCtx); err != nil {
			a.Logger.Warn("Data source script will not hot reload", "error", err)
		}
	}

	return a.Dashboard.Start(ctx)
}

// Close stops the workers, closes the bus and flushes pending spans.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	var errs []error
	if err := a.Bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing bus: %w", err))
	}
	a.workers.Wait()
	if err := a.shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flushing traces: %w", err))
	}
	a.injector.Shutdown()
	return errors.Join(errs...)
}
