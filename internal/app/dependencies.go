package app

import (
	"log/slog"

	"github.com/nfrund/kpiboard/internal/chart"
	"github.com/nfrund/kpiboard/internal/config"
	"github.com/nfrund/kpiboard/internal/dashboard"
	"github.com/nfrund/kpiboard/internal/datasource"
	"github.com/nfrund/kpiboard/internal/hub"
	"github.com/nfrund/kpiboard/internal/kpi"
	"github.com/nfrund/kpiboard/internal/metrics"
	"github.com/nfrund/kpiboard/internal/pubsub"
	"github.com/nfrund/kpiboard/internal/refresh"
	"github.com/nfrund/kpiboard/internal/script"
	"github.com/nfrund/kpiboard/internal/session"
	"github.com/nfrund/kpiboard/internal/storage"
	"github.com/nfrund/kpiboard/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"
)

// ChartSurface is the element id the performance chart is drawn into.
const ChartSurface = "performanceChart"

// registerServices declares how every component is built. Values the caller owns
// (config, logger, tracer, file system, registry) must already be provided.
func registerServices(i do.Injector) {
	do.Provide(i, provideCollector)
	do.Provide(i, provideBus)
	do.Provide(i, provideSessionStore)
	do.Provide(i, provideChartRenderer)
	do.Provide(i, provideSink)
	do.Provide(i, provideSource)
	do.Provide(i, provideFormatter)
	do.Provide(i, provideRefresher)
	do.Provide(i, provideDashboard)
	do.Provide(i, provideHub)
	do.Provide(i, provideBridge)
	do.Provide(i, provideSocketHandler)
}

func provideCollector(i do.Injector) (*metrics.Collector, error) {
	return metrics.NewCollector(do.MustInvoke[*prometheus.Registry](i)), nil
}

func provideBus(i do.Injector) (*pubsub.WatermillBridge, error) {
	return pubsub.NewWatermillBridge(
		pubsub.WithTracer(do.MustInvoke[trace.Tracer](i)),
		pubsub.WithLogger(do.MustInvoke[*slog.Logger](i)),
	), nil
}

func provideSessionStore(i do.Injector) (*session.Store, error) {
	cfg := do.MustInvoke[config.Provider](i)
	fs := do.MustInvoke[afero.Fs](i)
	return session.NewStore(storage.NewAferoStore(fs, cfg.GetSessionDir())), nil
}

func provideChartRenderer(do.Injector) (*chart.SVGRenderer, error) {
	return chart.NewSVGRenderer(), nil
}

func provideSink(i do.Injector) (*chart.Sink, error) {
	collector := do.MustInvoke[*metrics.Collector](i)
	return chart.NewSink(
		do.MustInvoke[*chart.SVGRenderer](i),
		ChartSurface,
		chart.DefaultOptions(),
		chart.WithObserver(collector.SetChartLive),
		chart.WithLogger(do.MustInvoke[*slog.Logger](i)),
	), nil
}

func provideSource(i do.Injector) (datasource.Source, error) {
	cfg := do.MustInvoke[config.Provider](i)
	logger := do.MustInvoke[*slog.Logger](i)

	if cfg.GetDataSource() == config.DataSourceScript {
		src, err := datasource.NewScriptSource(do.MustInvoke[afero.Fs](i), cfg.GetDataSourceScript(), script.NewTengoEngine(logger), logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return datasource.NewSimulated(
		datasource.WithDelay(cfg.GetDataSourceDelay()),
		datasource.WithFailureRate(cfg.GetDataSourceFailureRate()),
		datasource.WithSimulatedLogger(logger),
	), nil
}

func provideFormatter(i do.Injector) (*kpi.Formatter, error) {
	cfg := do.MustInvoke[config.Provider](i)
	return kpi.NewFormatter(kpi.ParseLocale(cfg.GetLocale()), cfg.GetCurrencySymbol()), nil
}

func provideRefresher(i do.Injector) (*refresh.Controller, error) {
	source, err := do.Invoke[datasource.Source](i)
	if err != nil {
		return nil, err
	}
	return refresh.NewController(
		source,
		do.MustInvoke[*chart.Sink](i),
		do.MustInvoke[*kpi.Formatter](i),
		refresh.WithPublisher(do.MustInvoke[*pubsub.WatermillBridge](i)),
		refresh.WithRecorder(do.MustInvoke[*metrics.Collector](i)),
		refresh.WithTracer(do.MustInvoke[trace.Tracer](i)),
		refresh.WithLogger(do.MustInvoke[*slog.Logger](i)),
	), nil
}

func provideDashboard(i do.Injector) (*dashboard.Controller, error) {
	refresher, err := do.Invoke[*refresh.Controller](i)
	if err != nil {
		return nil, err
	}
	cfg := do.MustInvoke[config.Provider](i)
	return dashboard.NewController(
		do.MustInvoke[*session.Store](i),
		refresher,
		do.MustInvoke[*chart.Sink](i),
		dashboard.WithPublisher(do.MustInvoke[*pubsub.WatermillBridge](i)),
		dashboard.WithRecorder(do.MustInvoke[*metrics.Collector](i)),
		dashboard.WithLogger(do.MustInvoke[*slog.Logger](i)),
		dashboard.WithRangeDays(cfg.GetDefaultRangeDays()),
	), nil
}

func provideHub(i do.Injector) (*hub.Hub, error) {
	return hub.NewHub(do.MustInvoke[*slog.Logger](i)), nil
}

func provideBridge(i do.Injector) (*websocket.Bridge, error) {
	return websocket.NewBridge(
		do.MustInvoke[*pubsub.WatermillBridge](i),
		do.MustInvoke[*hub.Hub](i),
		do.MustInvoke[*slog.Logger](i),
	), nil
}

func provideSocketHandler(i do.Injector) (*websocket.Handler, error) {
	return websocket.NewHandler(do.MustInvoke[*hub.Hub](i), do.MustInvoke[*slog.Logger](i)), nil
}
