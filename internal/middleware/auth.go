package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/kpiboard/internal/domain"
)

// IdentityContextKey is the echo context key holding the logged in domain.Identity.
const IdentityContextKey = "identity"

// SessionViewer reports the current session.
type SessionViewer interface {
	Identity() (domain.Identity, bool)
}

// RequireSession protects routes that need a logged in dashboard. Anonymous requests
// are sent back to the login view; htmx requests get an HX-Redirect instead of a 303.
func RequireSession(viewer SessionViewer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := viewer.Identity()
			if !ok {
				if c.Request().Header.Get("HX-Request") == "true" {
					c.Response().Header().Set("HX-Redirect", "/")
					return c.NoContent(http.StatusUnauthorized)
				}
				return c.Redirect(http.StatusSeeOther, "/")
			}

			c.Set(IdentityContextKey, id)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity RequireSession stored on c.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(IdentityContextKey).(domain.Identity)
	return id, ok && id != ""
}
