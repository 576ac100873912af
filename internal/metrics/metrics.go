// Package metrics exposes dashboard activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeRejected  = "rejected"
	OutcomeInvalid   = "invalid"
	OutcomeDiscarded = "discarded"
)

// Collector records refresh, chart and session activity.
type Collector struct {
	refreshes      *prometheus.CounterVec
	refreshLatency prometheus.Histogram
	loading        prometheus.Gauge
	chartLive      prometheus.Gauge
	logins         prometheus.Counter
	logouts        prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kpiboard_refresh_total",
			Help: "Refresh attempts by outcome.",
		}, []string{"outcome"}),
		refreshLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kpiboard_refresh_duration_seconds",
			Help:    "Time from loading indicator on to off.",
			Buckets: prometheus.DefBuckets,
		}),
		loading: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kpiboard_refresh_loading",
			Help: "1 while the loading indicator is shown.",
		}),
		chartLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kpiboard_chart_handles_live",
			Help: "Live chart handles on the dashboard surface.",
		}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kpiboard_logins_total",
			Help: "Successful logins.",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kpiboard_logouts_total",
			Help: "Logouts, including repeated ones.",
		}),
	}

	reg.MustRegister(
		c.refreshes,
		c.refreshLatency,
		c.loading,
		c.chartLive,
		c.logins,
		c.logouts,
	)

	return c
}

// RecordRefresh counts a refresh outcome.
func (c *Collector) RecordRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

// RecordRefreshLatency observes how long the indicator was shown.
func (c *Collector) RecordRefreshLatency(d time.Duration) {
	c.refreshLatency.Observe(d.Seconds())
}

// SetLoading mirrors the loading indicator.
func (c *Collector) SetLoading(on bool) {
	c.loading.Set(boolToFloat(on))
}

// SetChartLive mirrors whether a chart handle is alive.
func (c *Collector) SetChartLive(live bool) {
	c.chartLive.Set(boolToFloat(live))
}

func (c *Collector) RecordLogin()  { c.logins.Inc() }
func (c *Collector) RecordLogout() { c.logouts.Inc() }

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
