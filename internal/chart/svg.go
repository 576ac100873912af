package chart

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nfrund/kpiboard/internal/domain"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const plotPadding = 40

type lineChart struct {
	id      uuid.UUID
	surface string
	dataset domain.ChartDataset
	opts    Options
	draws   int
}

// SVGRenderer draws line charts as inline SVG. It refuses a second chart on a surface,
// the same way a canvas library refuses a canvas that is already in use.
type SVGRenderer struct {
	mu        sync.RWMutex
	charts    map[uuid.UUID]*lineChart
	bySurface map[string]uuid.UUID
}

// NewSVGRenderer creates an empty renderer.
func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{
		charts:    make(map[uuid.UUID]*lineChart),
		bySurface: make(map[string]uuid.UUID),
	}
}

// Create binds a new chart to surface.
func (r *SVGRenderer) Create(surface string, dataset domain.ChartDataset, opts Options) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.bySurface[surface]; busy {
		return Handle{}, ErrSurfaceBusy
	}
	c := &lineChart{id: uuid.New(), surface: surface, dataset: dataset, opts: opts, draws: 1}
	r.charts[c.id] = c
	r.bySurface[surface] = c.id
	return Handle{ID: c.id, Surface: surface}, nil
}

// Update swaps the dataset of an existing chart and marks it for redraw.
func (r *SVGRenderer) Update(hd Handle, dataset domain.ChartDataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.charts[hd.ID]
	if !ok {
		return ErrUnknownHandle
	}
	c.dataset = dataset
	c.draws++
	return nil
}

// Destroy detaches the chart from its surface.
func (r *SVGRenderer) Destroy(hd Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.charts[hd.ID]
	if !ok {
		return ErrUnknownHandle
	}
	delete(r.charts, c.id)
	delete(r.bySurface, c.surface)
	return nil
}

// Live returns the number of chart objects currently alive.
func (r *SVGRenderer) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.charts)
}

// Draws returns how many times the chart behind hd was drawn, or 0 if it is gone.
func (r *SVGRenderer) Draws(hd Handle) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.charts[hd.ID]; ok {
		return c.draws
	}
	return 0
}

// Node renders the chart bound to surface. An empty surface renders an empty placeholder.
func (r *SVGRenderer) Node(surface string) g.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySurface[surface]
	if !ok {
		return h.Div(h.ID(surface), h.Class("chart chart-empty"))
	}
	c := r.charts[id]
	return h.Div(
		h.ID(surface),
		h.Class("chart"),
		h.Data("chart-handle", c.id.String()),
		c.svg(),
	)
}

func (c *lineChart) svg() g.Node {
	w, ht := c.opts.Width, c.opts.Height
	if w <= 0 {
		w = 640
	}
	if ht <= 0 {
		ht = 280
	}
	lo, hi := c.bounds()
	plotW := float64(w - 2*plotPadding)
	plotH := float64(ht - 2*plotPadding)

	x := func(i, n int) float64 {
		if n <= 1 {
			return plotPadding + plotW/2
		}
		return plotPadding + plotW*float64(i)/float64(n-1)
	}
	y := func(v float64) float64 {
		if hi == lo {
			return plotPadding + plotH
		}
		return plotPadding + plotH*(1-(v-lo)/(hi-lo))
	}

	var nodes []g.Node
	nodes = append(nodes,
		g.Attr("viewBox", fmt.Sprintf("0 0 %d %d", w, ht)),
		g.Attr("preserveAspectRatio", "none"),
		g.Attr("role", "img"),
		g.El("line", svgAttrs("x1", plotPadding, "y1", plotPadding+plotH, "x2", plotPadding+plotW, "y2", plotPadding+plotH), g.Attr("stroke", "#ccc")),
	)

	n := len(c.dataset.Labels)
	for i, label := range c.dataset.Labels {
		nodes = append(nodes, g.El("text",
			svgAttrs("x", x(i, n), "y", float64(ht)-plotPadding/2),
			g.Attr("text-anchor", "middle"),
			g.Attr("font-size", "11"),
			g.Text(label),
		))
	}

	for si, s := range c.dataset.Series {
		color := c.color(si)
		pts := make([]string, 0, len(s.Points))
		for i, p := range s.Points {
			pts = append(pts, fmt.Sprintf("%.1f,%.1f", x(i, len(s.Points)), y(p.Value)))
		}
		nodes = append(nodes, g.El("polyline",
			g.Attr("fill", "none"),
			g.Attr("stroke", color),
			g.Attr("stroke-width", "2"),
			g.Attr("points", strings.Join(pts, " ")),
			g.Attr("data-series", s.Name),
		))
		if c.opts.LegendPosition != "" {
			nodes = append(nodes, g.El("text",
				svgAttrs("x", plotPadding+float64(si)*140, "y", plotPadding/2),
				g.Attr("fill", color),
				g.Attr("font-size", "12"),
				g.Text(s.Name),
			))
		}
	}

	return h.SVG(nodes...)
}

func (c *lineChart) bounds() (lo, hi float64) {
	first := true
	for _, s := range c.dataset.Series {
		for _, p := range s.Points {
			if first {
				lo, hi = p.Value, p.Value
				first = false
				continue
			}
			lo = min(lo, p.Value)
			hi = max(hi, p.Value)
		}
	}
	if c.opts.BeginAtZero && lo > 0 {
		lo = 0
	}
	return lo, hi
}

func (c *lineChart) color(i int) string {
	if len(c.opts.Colors) == 0 {
		return "currentColor"
	}
	return c.opts.Colors[i%len(c.opts.Colors)]
}

func svgAttrs(kv ...any) g.Node {
	nodes := make([]g.Node, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		nodes = append(nodes, g.Attr(kv[i].(string), fmt.Sprintf("%.1f", toFloat(kv[i+1]))))
	}
	return g.Group(nodes)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
