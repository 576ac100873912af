// Package chart owns the single live chart bound to a drawing surface.
package chart

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nfrund/kpiboard/internal/domain"
)

var (
	// ErrSurfaceBusy is returned by a renderer asked to create a second chart on a surface.
	ErrSurfaceBusy = errors.New("chart: surface already has a live chart")
	// ErrUnknownHandle is returned for handles the renderer does not own (destroyed or foreign).
	ErrUnknownHandle = errors.New("chart: unknown handle")
)

// Handle is the ownership token of one live chart object.
type Handle struct {
	ID      uuid.UUID
	Surface string
}

// IsZero reports whether h refers to no chart.
func (h Handle) IsZero() bool { return h.ID == uuid.Nil }

// Options are fixed at creation time.
type Options struct {
	Type           string
	Width          int
	Height         int
	BeginAtZero    bool
	LegendPosition string
	Colors         []string
}

// DefaultOptions is a responsive line chart with the y axis starting at zero and the legend on top.
func DefaultOptions() Options {
	return Options{
		Type:           "line",
		Width:          640,
		Height:         280,
		BeginAtZero:    true,
		LegendPosition: "top",
		Colors:         []string{"rgba(238, 77, 45, 1)", "rgba(0, 95, 156, 1)"},
	}
}

// Renderer is the rendering boundary. Implementations are opaque drawing sinks.
type Renderer interface {
	Create(surface string, dataset domain.ChartDataset, opts Options) (Handle, error)
	Update(h Handle, dataset domain.ChartDataset) error
	Destroy(h Handle) error
}
