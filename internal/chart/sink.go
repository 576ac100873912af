package chart

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nfrund/kpiboard/internal/domain"
)

// Sink owns at most one live Handle for its surface.
// Render creates on first use and swaps data in place afterwards; Destroy releases.
type Sink struct {
	mu       sync.Mutex
	renderer Renderer
	surface  string
	opts     Options
	handle   Handle
	observe  func(live bool)
	logger   *slog.Logger
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithObserver is called with the liveness of the handle after every change.
func WithObserver(fn func(live bool)) SinkOption {
	return func(s *Sink) { s.observe = fn }
}

// WithLogger sets the sink logger.
func WithLogger(l *slog.Logger) SinkOption {
	return func(s *Sink) { s.logger = l }
}

// NewSink binds a sink to one surface of renderer.
func NewSink(renderer Renderer, surface string, opts Options, options ...SinkOption) *Sink {
	s := &Sink{
		renderer: renderer,
		surface:  surface,
		opts:     opts,
		logger:   slog.Default(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Surface returns the name of the bound drawing surface.
func (s *Sink) Surface() string { return s.surface }

// Handle returns the live handle, if any.
func (s *Sink) Handle() (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle, !s.handle.IsZero()
}

// Render draws dataset. The existing chart object is updated in place, never recreated.
func (s *Sink) Render(dataset domain.ChartDataset) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.handle.IsZero() {
		if err := s.renderer.Update(s.handle, dataset); err != nil {
			return s.handle, fmt.Errorf("updating chart %s: %w", s.handle.ID, err)
		}
		s.logger.Debug("Chart updated", "surface", s.surface, "handle", s.handle.ID)
		return s.handle, nil
	}

	h, err := s.renderer.Create(s.surface, dataset, s.opts)
	if err != nil {
		return Handle{}, fmt.Errorf("creating chart on %s: %w", s.surface, err)
	}
	s.handle = h
	s.logger.Debug("Chart created", "surface", s.surface, "handle", h.ID)
	s.notify()
	return h, nil
}

// Destroy releases the live handle. It is a no-op when there is none.
// If the renderer fails the handle is kept so that it can still be reused or destroyed later.
func (s *Sink) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle.IsZero() {
		return nil
	}
	if err := s.renderer.Destroy(s.handle); err != nil {
		return fmt.Errorf("destroying chart %s: %w", s.handle.ID, err)
	}
	s.logger.Debug("Chart destroyed", "surface", s.surface, "handle", s.handle.ID)
	s.handle = Handle{}
	s.notify()
	return nil
}

func (s *Sink) notify() {
	if s.observe != nil {
		s.observe(!s.handle.IsZero())
	}
}
