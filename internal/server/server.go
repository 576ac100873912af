package server

import (
	"io/fs"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/kpiboard/internal/app"
	"github.com/nfrund/kpiboard/internal/handlers"
	appmiddleware "github.com/nfrund/kpiboard/internal/middleware"
	"github.com/nfrund/kpiboard/internal/rendering"
)

// Server holds the echo instance and the handlers bound to the application.
type Server struct {
	E   *echo.Echo
	App *app.App

	static           fs.FS
	authHandler      *handlers.AuthHandler
	dashboardHandler *handlers.DashboardHandler
}

// New creates the HTTP server for a. static is served under /static.
func New(a *app.App, static fs.FS) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	setupErrorHandling(e)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(appmiddleware.Logger)

	// Flash messages only; the login itself lives in the session store.
	store := sessions.NewCookieStore([]byte(a.Config.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	renderer := rendering.NewUniversalRenderer()
	e.Renderer = renderer

	return &Server{
		E:                e,
		App:              a,
		static:           static,
		authHandler:      handlers.NewAuthHandler(a.Dashboard),
		dashboardHandler: handlers.NewDashboardHandler(a.Dashboard, a.Charts, a.Sink.Surface(), renderer),
	}
}

// setupErrorHandling logs unhandled errors with a stack trace before echo answers them.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if _, ok := err.(*echo.HTTPError); !ok {
			appmiddleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				"error", err.Error(),
				"stack_trace", string(debug.Stack()),
			)
			err = echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

// logger returns the application logger.
func (s *Server) logger() *slog.Logger {
	return s.App.Logger
}
