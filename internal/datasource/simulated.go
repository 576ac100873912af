package datasource

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nfrund/kpiboard/internal/domain"
)

// ErrSimulatedOutage is the cause of injected failures.
var ErrSimulatedOutage = errors.New("simulated outage")

// Simulated answers with the reference scenario after a fixed delay.
// A failure rate above zero makes some fetches fail.
type Simulated struct {
	delay       time.Duration
	failureRate float64
	roll        func() float64
	logger      *slog.Logger
}

// SimulatedOption configures a Simulated source.
type SimulatedOption func(*Simulated)

// WithDelay sets the time each fetch takes.
func WithDelay(d time.Duration) SimulatedOption {
	return func(s *Simulated) { s.delay = d }
}

// WithFailureRate sets the probability in [0,1] that a fetch fails.
func WithFailureRate(p float64) SimulatedOption {
	return func(s *Simulated) { s.failureRate = p }
}

// WithRoll replaces the random source used for failure injection.
func WithRoll(roll func() float64) SimulatedOption {
	return func(s *Simulated) { s.roll = roll }
}

// WithSimulatedLogger sets the logger.
func WithSimulatedLogger(l *slog.Logger) SimulatedOption {
	return func(s *Simulated) { s.logger = l }
}

// NewSimulated creates a simulated source. The default delay is 1.5s with no failures.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		delay:  1500 * time.Millisecond,
		roll:   rand.Float64,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Simulated) Name() string { return "simulated" }

// Fetch waits for the configured delay and then returns the reference scenario for r.
func (s *Simulated) Fetch(ctx context.Context, r domain.DateRange) (domain.RawMetrics, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return domain.RawMetrics{}, &domain.DataSourceError{Source: s.Name(), Err: ctx.Err()}
	case <-timer.C:
	}

	if s.failureRate > 0 && s.roll() < s.failureRate {
		s.logger.Warn("Simulated data source failure", "start", r.StartString(), "end", r.EndString())
		return domain.RawMetrics{}, &domain.DataSourceError{Source: s.Name(), Err: ErrSimulatedOutage}
	}
	return ReferenceMetrics(r), nil
}
