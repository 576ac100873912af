// Package refresh runs the fetch-and-render cycle of the dashboard.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/kpiboard/internal/chart"
	"github.com/nfrund/kpiboard/internal/datasource"
	"github.com/nfrund/kpiboard/internal/domain"
	"github.com/nfrund/kpiboard/internal/events"
	"github.com/nfrund/kpiboard/internal/kpi"
	"github.com/nfrund/kpiboard/internal/metrics"
	"github.com/nfrund/kpiboard/internal/pubsub"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ErrDiscarded is returned when the session ended while data was being fetched.
// The indicator was cleared but nothing was applied.
var ErrDiscarded = errors.New("refresh result discarded: session ended while loading")

// Recorder receives refresh metrics.
type Recorder interface {
	RecordRefresh(outcome string)
	RecordRefreshLatency(d time.Duration)
	SetLoading(on bool)
}

// Result is the outcome of one successful refresh.
type Result struct {
	Range     domain.DateRange    `json:"range"`
	Snapshot  domain.KpiSnapshot  `json:"snapshot"`
	Display   kpi.Formatted       `json:"display"`
	Dataset   domain.ChartDataset `json:"dataset"`
	Handle    chart.Handle        `json:"chart_handle"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Status is a consistent view of the controller.
type Status struct {
	State     domain.RefreshState `json:"state"`
	Range     domain.DateRange    `json:"range"`
	Last      *Result             `json:"last,omitempty"`
	LastError string              `json:"last_error,omitempty"`
}

// Controller drives refresh(range). At most one refresh is in flight; a second one is rejected.
type Controller struct {
	source    datasource.Source
	sink      *chart.Sink
	formatter *kpi.Formatter
	publisher pubsub.Publisher
	recorder  Recorder
	tracer    trace.Tracer
	logger    *slog.Logger
	indicator func(on bool)
	now       func() time.Time

	mu         sync.Mutex
	state      domain.RefreshState
	generation uint64
	idle       chan struct{}
	requested  domain.DateRange
	last       *Result
	lastErr    error
}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher publishes loading and result events.
func WithPublisher(p pubsub.Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithRecorder records metrics.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithTracer traces each refresh attempt.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithIndicator is called each time the loading indicator is shown or hidden.
func WithIndicator(fn func(on bool)) Option {
	return func(c *Controller) { c.indicator = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController wires a controller to its data source and chart sink.
func NewController(source datasource.Source, sink *chart.Sink, formatter *kpi.Formatter, opts ...Option) *Controller {
	c := &Controller{
		source:    source,
		sink:      sink,
		formatter: formatter,
		publisher: pubsub.Nop{},
		recorder:  nopRecorder{},
		tracer:    noop.NewTracerProvider().Tracer("refresh"),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generation identifies the current session. Reset moves it on.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Refresh runs RefreshAt for the current generation.
func (c *Controller) Refresh(ctx context.Context, identity domain.Identity, r domain.DateRange) (*Result, error) {
	return c.RefreshAt(ctx, identity, c.Generation(), r)
}

// RefreshAt validates r, shows the loading indicator, awaits the data source once and
// applies the result. The indicator is hidden exactly once on every exit path.
// A failed fetch leaves the previous KPIs and chart in place.
// The fetch is not cancelled when ctx is; it always runs to completion.
//
// generation must come from Generation, read while the caller knew the session was
// live. If Reset ran since, ErrDiscarded is returned and nothing is fetched.
func (c *Controller) RefreshAt(ctx context.Context, identity domain.Identity, generation uint64, r domain.DateRange) (*Result, error) {
	if err := r.Validate(); err != nil {
		c.recorder.RecordRefresh(metrics.OutcomeInvalid)
		return nil, err
	}

	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		c.recorder.RecordRefresh(metrics.OutcomeDiscarded)
		return nil, ErrDiscarded
	}
	if c.state == domain.Loading {
		c.mu.Unlock()
		c.recorder.RecordRefresh(metrics.OutcomeRejected)
		return nil, domain.ErrRefreshInProgress
	}
	c.state = domain.Loading
	c.requested = r
	idle := make(chan struct{})
	c.idle = idle
	c.mu.Unlock()

	logger := c.logger.With("start", r.StartString(), "end", r.EndString())
	started := c.now()
	c.setIndicator(ctx, identity, r, true)
	defer func() {
		c.mu.Lock()
		c.state = domain.Idle
		c.idle = nil
		c.mu.Unlock()
		c.setIndicator(ctx, identity, r, false)
		c.recorder.RecordRefreshLatency(c.now().Sub(started))
		close(idle)
	}()

	// The fetch outlives a cancelled request.
	fetchCtx := context.WithoutCancel(ctx)
	fetchCtx, span := c.tracer.Start(fetchCtx, "refresh",
		trace.WithAttributes(
			attribute.String("refresh.start", r.StartString()),
			attribute.String("refresh.end", r.EndString()),
			attribute.String("datasource.name", c.source.Name()),
		),
	)
	defer span.End()

	raw, err := c.source.Fetch(fetchCtx, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		c.fail(ctx, identity, r, err)
		logger.Warn("Refresh failed, keeping previous values", "error", err)
		return nil, err
	}

	res, err := c.apply(generation, r, raw)
	switch {
	case errors.Is(err, ErrDiscarded):
		c.recorder.RecordRefresh(metrics.OutcomeDiscarded)
		logger.Info("Refresh result discarded after session change")
		return nil, err
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply failed")
		c.fail(ctx, identity, r, err)
		logger.Error("Applying refresh result failed", "error", err)
		return nil, err
	}

	c.recorder.RecordRefresh(metrics.OutcomeSuccess)
	c.publish(ctx, identity, func(ctx context.Context) error {
		return pubsub.Publish(ctx, c.publisher, events.TopicRefreshCompleted, string(identity), events.RefreshCompleted{
			Start:       r.StartString(),
			End:         r.EndString(),
			Spend:       res.Display.Spend,
			Impressions: res.Display.Impressions,
			Clicks:      res.Display.Clicks,
			CTR:         res.Display.CTR,
			ChartHandle: res.Handle.ID.String(),
			DurationMS:  float64(c.now().Sub(started)) / float64(time.Millisecond),
		})
	})
	logger.Info("Refresh applied", "spend", res.Snapshot.Spend, "ctr", res.Snapshot.CTR, "chart", res.Handle.ID)
	return res, nil
}

// apply computes the KPIs and dataset and renders the chart.
// KPIs are replaced only after the chart accepted the dataset, so both change together.
func (c *Controller) apply(generation uint64, r domain.DateRange, raw domain.RawMetrics) (*Result, error) {
	snapshot := kpi.Snapshot(raw)
	dataset := kpi.Dataset(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return nil, ErrDiscarded
	}

	handle, err := c.sink.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	res := &Result{
		Range:     r,
		Snapshot:  snapshot,
		Display:   c.formatter.Format(snapshot),
		Dataset:   dataset,
		Handle:    handle,
		UpdatedAt: c.now(),
	}
	c.last = res
	c.lastErr = nil
	return res, nil
}

func (c *Controller) fail(ctx context.Context, identity domain.Identity, r domain.DateRange, err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()

	c.recorder.RecordRefresh(metrics.OutcomeFailure)
	c.publish(ctx, identity, func(ctx context.Context) error {
		return pubsub.Publish(ctx, c.publisher, events.TopicRefreshFailed, string(identity), events.RefreshFailed{
			Start: r.StartString(),
			End:   r.EndString(),
			Error: err.Error(),
		})
	})
}

// Reset forgets the displayed values and invalidates any refresh still loading.
// It is called when the session ends.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.last = nil
	c.lastErr = nil
	c.requested = domain.DateRange{}
}

// WaitIdle blocks until no refresh is loading or ctx is done.
func (c *Controller) WaitIdle(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current RefreshState.
func (c *Controller) State() domain.RefreshState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Last returns the most recently applied result, or nil.
func (c *Controller) Last() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Status returns state, requested range, last result and last error together.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{State: c.state, Range: c.requested, Last: c.last}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

func (c *Controller) setIndicator(ctx context.Context, identity domain.Identity, r domain.DateRange, on bool) {
	c.recorder.SetLoading(on)
	if c.indicator != nil {
		c.indicator(on)
	}
	c.publish(ctx, identity, func(ctx context.Context) error {
		return pubsub.Publish(ctx, c.publisher, events.TopicLoading, string(identity), events.Loading{
			Loading: on,
			Start:   r.StartString(),
			End:     r.EndString(),
		})
	})
}

// publish sends an event without letting bus failures affect the refresh.
func (c *Controller) publish(ctx context.Context, identity domain.Identity, send func(context.Context) error) {
	if err := send(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn("Failed to publish refresh event", "identity", identity, "error", err)
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordRefresh(string)               {}
func (nopRecorder) RecordRefreshLatency(time.Duration) {}
func (nopRecorder) SetLoading(bool)                    {}

var _ Recorder = (*metrics.Collector)(nil)
