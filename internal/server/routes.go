package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/kpiboard/internal/metrics"
	"github.com/nfrund/kpiboard/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	rateLimiter := middleware.RateLimiter(middleware.DefaultLoginsPerMinute)
	requireSession := middleware.RequireSession(s.App.Dashboard)

	s.E.StaticFS("/static", s.static)

	s.E.GET("/", s.dashboardHandler.HomeGet)
	s.E.POST("/login", s.authHandler.LoginPost, rateLimiter)
	s.E.POST("/logout", s.authHandler.LogoutPost)

	s.E.POST("/refresh", s.dashboardHandler.RefreshPost, requireSession)
	s.E.GET("/partials/dashboard", s.dashboardHandler.BodyGet, requireSession)

	s.E.GET("/api/status", s.dashboardHandler.StatusGet)
	s.E.GET("/api/topics", s.dashboardHandler.TopicsGet)

	s.E.GET("/ws", echo.WrapHandler(s.App.Sockets))
	s.E.GET("/metrics", echo.WrapHandler(metrics.Handler(s.App.Registry)))

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
