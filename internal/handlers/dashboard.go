package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/kpiboard/internal/dashboard"
	"github.com/nfrund/kpiboard/internal/domain"
	"github.com/nfrund/kpiboard/internal/events"
	"github.com/nfrund/kpiboard/internal/middleware"
	"github.com/nfrund/kpiboard/internal/pubsub"
	"github.com/nfrund/kpiboard/internal/refresh"
	"github.com/nfrund/kpiboard/internal/rendering"
	"github.com/nfrund/kpiboard/internal/view"
	"github.com/nfrund/kpiboard/internal/view/dto"
	g "maragu.dev/gomponents"
)

// Dashboard is the view controller as seen by the HTTP layer.
type Dashboard interface {
	Login(ctx context.Context, email, password string) (*refresh.Result, error)
	Logout(ctx context.Context)
	Refresh(ctx context.Context, r domain.DateRange) (*refresh.Result, error)
	Status() dashboard.Status
	Identity() (domain.Identity, bool)
	InitialRange() domain.DateRange
	Notify(ctx context.Context, level, message string)
}

// ChartView renders the chart bound to a surface.
type ChartView interface {
	Node(surface string) g.Node
}

// DashboardHandler serves the page, the refresh action and the status API.
type DashboardHandler struct {
	dashboard Dashboard
	charts    ChartView
	surface   string
	renderer  rendering.Renderer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(d Dashboard, charts ChartView, surface string, renderer rendering.Renderer) *DashboardHandler {
	return &DashboardHandler{dashboard: d, charts: charts, surface: surface, renderer: renderer}
}

// HomeGet renders the login or the dashboard view, whichever is active (GET /).
func (h *DashboardHandler) HomeGet(c echo.Context) error {
	email := takeEmail(c)
	flashes := view.GetFlashData(c)

	st := h.dashboard.Status()
	if st.View != domain.LoggedIn {
		page := view.Base("Login", flashes, view.LoginPage(dto.LoginData{Email: email}))
		return h.renderer.RenderPage(c, http.StatusOK, page)
	}

	page := view.Base("Dashboard", flashes, view.DashboardPage(h.dashboardData(st)))
	return h.renderer.RenderPage(c, http.StatusOK, page)
}

// BodyGet renders only the KPI and chart section, for htmx reloads (GET /partials/dashboard).
func (h *DashboardHandler) BodyGet(c echo.Context) error {
	return h.renderer.RenderPage(c, http.StatusOK, view.DashboardBody(h.dashboardData(h.dashboard.Status())))
}

// RefreshPost runs a refresh for the submitted range (POST /refresh).
// htmx requests get the new dashboard body; plain form posts are redirected to /.
func (h *DashboardHandler) RefreshPost(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)
	if id, ok := middleware.IdentityFrom(c); ok {
		logger = logger.With("identity", id)
	}
	htmx := c.Request().Header.Get("HX-Request") == "true"

	var alert, notice string
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		alert = "The form could not be read."
	} else if err := c.Validate(&req); err != nil {
		alert = validationMessage(err)
	} else if r, err := req.Range(); err != nil {
		alert = err.Error()
	} else {
		_, err := h.dashboard.Refresh(ctx, r)
		switch {
		case err == nil:
		case domain.IsValidation(err):
			alert = err.Error()
		case domain.IsDataSource(err):
			notice = "Could not load campaign data. Showing the previous values."
			h.dashboard.Notify(ctx, events.LevelError, notice)
		case errors.Is(err, domain.ErrRefreshInProgress):
			notice = "A refresh is already running."
		case errors.Is(err, refresh.ErrDiscarded), errors.Is(err, domain.ErrNotLoggedIn):
			return h.toHome(c, htmx)
		default:
			logger.Error("Refresh failed", "error", err)
			notice = "Something went wrong while refreshing."
		}
	}

	if !htmx {
		if alert != "" {
			view.SetFlashError(c, alert)
		} else if notice != "" {
			view.SetFlashError(c, notice)
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}

	data := h.dashboardData(h.dashboard.Status())
	data.Alert, data.Notice = alert, notice
	if alert != "" {
		// Keep what the user typed so the mistake is visible.
		data.Start, data.End = req.Start, req.End
	}
	return h.renderer.RenderPage(c, http.StatusOK, view.DashboardBody(data))
}

// StatusGet returns the view and refresh state as JSON (GET /api/status).
func (h *DashboardHandler) StatusGet(c echo.Context) error {
	return c.JSON(http.StatusOK, NewStatusResponse(h.dashboard.Status()))
}

// TopicsGet lists the events streamed on /ws (GET /api/topics).
func (h *DashboardHandler) TopicsGet(c echo.Context) error {
	return c.JSON(http.StatusOK, pubsub.Topics())
}

func (h *DashboardHandler) toHome(c echo.Context, htmx bool) error {
	if htmx {
		c.Response().Header().Set("HX-Redirect", "/")
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *DashboardHandler) dashboardData(st dashboard.Status) dto.DashboardData {
	r := st.Refresh.Range
	if r.Start.IsZero() || r.End.IsZero() {
		r = h.dashboard.InitialRange()
	}

	data := dto.DashboardData{
		Identity: string(st.Identity),
		Start:    r.StartString(),
		End:      r.EndString(),
		Loading:  st.Refresh.State == domain.Loading,
		Chart:    h.charts.Node(h.surface),
	}
	if last := st.Refresh.Last; last != nil {
		data.HasData = true
		data.KPIs = last.Display
		data.UpdatedAt = last.UpdatedAt
	}
	return data
}
