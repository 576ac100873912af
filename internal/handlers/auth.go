package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/kpiboard/internal/domain"
	"github.com/nfrund/kpiboard/internal/events"
	"github.com/nfrund/kpiboard/internal/middleware"
	"github.com/nfrund/kpiboard/internal/refresh"
	"github.com/nfrund/kpiboard/internal/view"
)

const formEmailFlash = "form_email"

// AuthHandler handles login and logout.
type AuthHandler struct {
	dashboard Dashboard
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(d Dashboard) *AuthHandler {
	return &AuthHandler{dashboard: d}
}

// LoginPost handles the login form (POST /login). Empty fields are reported and
// the form is shown again with the email kept.
func (h *AuthHandler) LoginPost(c echo.Context) error {
	logger := middleware.FromContext(c.Request().Context())

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		view.SetFlashError(c, "The form could not be read.")
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err := c.Validate(&req); err != nil {
		keepEmail(c, req.Email)
		view.SetFlashError(c, "Please enter your email and password.")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	_, err := h.dashboard.Login(c.Request().Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case domain.IsValidation(err):
		keepEmail(c, req.Email)
		view.SetFlashError(c, err.Error())
	case domain.IsDataSource(err):
		// Logged in; only the first load failed.
		view.SetFlashError(c, "Could not load campaign data. Showing the dashboard without values.")
		h.dashboard.Notify(c.Request().Context(), events.LevelError, "Could not load campaign data.")
	case errors.Is(err, domain.ErrRefreshInProgress), errors.Is(err, refresh.ErrDiscarded):
		// The session exists; the page shows whatever the running refresh leaves.
		logger.Info("Initial refresh skipped", "reason", err)
	default:
		logger.Error("Login failed", "error", err)
		view.SetFlashError(c, "Could not start your session.")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// LogoutPost ends the session (POST /logout). Logging out twice is harmless.
func (h *AuthHandler) LogoutPost(c echo.Context) error {
	h.dashboard.Logout(c.Request().Context())
	if st := h.dashboard.Status(); st.SessionError != "" {
		view.SetFlashError(c, "You have been logged out, but the saved session could not be removed.")
		return c.Redirect(http.StatusSeeOther, "/")
	}
	view.SetFlashSuccess(c, "You have been logged out.")
	return c.Redirect(http.StatusSeeOther, "/")
}

// keepEmail stores the submitted email so the login form can be pre-filled.
func keepEmail(c echo.Context, email string) {
	if email == "" {
		return
	}
	if sess, err := session.Get("flash-session", c); err == nil {
		sess.AddFlash(email, formEmailFlash)
		_ = sess.Save(c.Request(), c.Response())
	}
}

// takeEmail reads and clears the pre-filled email.
func takeEmail(c echo.Context) string {
	sess, err := session.Get("flash-session", c)
	if err != nil {
		return ""
	}
	flashes := sess.Flashes(formEmailFlash)
	if len(flashes) == 0 {
		return ""
	}
	_ = sess.Save(c.Request(), c.Response())
	email, _ := flashes[0].(string)
	return email
}
