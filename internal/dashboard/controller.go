// Package dashboard is the top-level view state machine: it decides whether the
// login or the dashboard panel is visible and keeps that in step with the session.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nfrund/kpiboard/internal/chart"
	"github.com/nfrund/kpiboard/internal/domain"
	"github.com/nfrund/kpiboard/internal/events"
	"github.com/nfrund/kpiboard/internal/pubsub"
	"github.com/nfrund/kpiboard/internal/refresh"
	"github.com/nfrund/kpiboard/internal/session"
)

// DefaultRangeDays is the length of the range refreshed on entering the dashboard.
const DefaultRangeDays = 30

// SessionRecorder receives session metrics.
type SessionRecorder interface {
	RecordLogin()
	RecordLogout()
}

// Status is a consistent snapshot of the visible view and the refresh state.
type Status struct {
	View         domain.ViewState `json:"view"`
	Identity     domain.Identity  `json:"identity,omitempty"`
	Refresh      refresh.Status   `json:"refresh"`
	ChartHandle  string           `json:"chart_handle,omitempty"`
	SessionError string           `json:"session_error,omitempty"`
}

// Controller owns the LoggedOut/LoggedIn state. The view changes only together
// with the session store, so the visible panel always matches the stored identity.
type Controller struct {
	store     *session.Store
	refresher *refresh.Controller
	sink      *chart.Sink
	publisher pubsub.Publisher
	recorder  SessionRecorder
	logger    *slog.Logger
	now       func() time.Time
	rangeDays int

	mu         sync.Mutex
	state      domain.ViewState
	identity   domain.Identity
	sessionErr error
}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher publishes view changes and notifications.
func WithPublisher(p pubsub.Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithRecorder records login and logout counts.
func WithRecorder(r SessionRecorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock replaces time.Now when computing the initial range.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRangeDays sets how many days the initial refresh covers.
func WithRangeDays(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.rangeDays = n
		}
	}
}

// NewController creates a controller in the LoggedOut state. Call Start to load the session.
func NewController(store *session.Store, refresher *refresh.Controller, sink *chart.Sink, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		refresher: refresher,
		sink:      sink,
		publisher: pubsub.Nop{},
		recorder:  nopRecorder{},
		logger:    slog.Default(),
		now:       time.Now,
		rangeDays: DefaultRangeDays,
		state:     domain.LoggedOut,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start picks the initial view from the session store. With a stored identity the
// dashboard is entered and refreshed; a failing refresh does not fail Start.
func (c *Controller) Start(ctx context.Context) error {
	id, ok, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}

	c.mu.Lock()
	if ok {
		c.state, c.identity = domain.LoggedIn, id
	} else {
		c.state, c.identity = domain.LoggedOut, ""
	}
	generation := c.refresher.Generation()
	c.mu.Unlock()

	c.publishView(ctx, c.stateOf(ok), id)
	c.logger.Info("Dashboard started", "view", c.stateOf(ok), "identity", id)
	if !ok {
		return nil
	}

	if _, err := c.initialRefresh(ctx, id, generation); err != nil {
		c.logger.Warn("Initial refresh failed", "error", err)
	}
	return nil
}

// Login accepts any non-empty email and password, persists the email as the
// identity, shows the dashboard and runs the initial refresh.
//
// A *domain.ValidationError means nothing changed. Any other error comes from the
// initial refresh and leaves the session established. If a refresh from an earlier
// session is still loading, the initial refresh waits for it and runs afterwards.
func (c *Controller) Login(ctx context.Context, email, password string) (*refresh.Result, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.NewValidationError(domain.ErrEmptyCredentials, "Please enter your email and password.")
	}
	id := domain.Identity(email)

	c.mu.Lock()
	if err := c.store.Set(ctx, id); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("saving session: %w", err)
	}
	c.state, c.identity, c.sessionErr = domain.LoggedIn, id, nil
	generation := c.refresher.Generation()
	c.mu.Unlock()

	c.recorder.RecordLogin()
	c.publishView(ctx, domain.LoggedIn, id)
	c.logger.Info("User logged in", "identity", id)

	return c.initialRefresh(ctx, id, generation)
}

// Logout clears the session, destroys the chart and shows the login view, in that
// order. It never fails and calling it again is a no-op. If the stored identity
// could not be removed, the error is kept in Status until the next login or logout.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionErr = c.store.Clear(ctx)
	if c.sessionErr != nil {
		c.logger.Error("Failed to clear session", "error", c.sessionErr)
	}
	c.refresher.Reset()
	if err := c.sink.Destroy(); err != nil {
		c.logger.Error("Failed to destroy chart", "error", err)
	}

	c.recorder.RecordLogout()
	if c.state == domain.LoggedOut {
		return
	}
	prev := c.identity
	c.state, c.identity = domain.LoggedOut, ""

	c.publishView(ctx, domain.LoggedOut, "")
	c.logger.Info("User logged out", "identity", prev)
}

// Refresh runs a refresh for the logged in identity. A logout that happens before
// the result arrives makes it return refresh.ErrDiscarded.
func (c *Controller) Refresh(ctx context.Context, r domain.DateRange) (*refresh.Result, error) {
	c.mu.Lock()
	state, id := c.state, c.identity
	generation := c.refresher.Generation()
	c.mu.Unlock()

	if state != domain.LoggedIn {
		return nil, domain.ErrNotLoggedIn
	}
	return c.refresher.RefreshAt(ctx, id, generation, r)
}

// State returns the visible view.
func (c *Controller) State() domain.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the logged in identity, if any.
func (c *Controller) Identity() (domain.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity, c.state == domain.LoggedIn
}

// InitialRange is the range the dashboard opens with.
func (c *Controller) InitialRange() domain.DateRange {
	return domain.LastDays(c.now(), c.rangeDays)
}

// Status reports the view together with the refresh state and chart handle.
func (c *Controller) Status() Status {
	c.mu.Lock()
	st := Status{View: c.state, Identity: c.identity}
	if c.sessionErr != nil {
		st.SessionError = c.sessionErr.Error()
	}
	c.mu.Unlock()

	st.Refresh = c.refresher.Status()
	if h, ok := c.sink.Handle(); ok {
		st.ChartHandle = h.ID.String()
	}
	return st
}

// Notify publishes a user-visible notification.
func (c *Controller) Notify(ctx context.Context, level, message string) {
	id, _ := c.Identity()
	err := pubsub.Publish(context.WithoutCancel(ctx), c.publisher, events.TopicNotification, string(id),
		events.Notification{Level: level, Message: message})
	if err != nil {
		c.logger.Warn("Failed to publish notification", "error", err)
	}
}

// initialRefresh loads the opening range. A refresh still loading for a session
// that has since ended holds the busy slot; wait for it to settle and try once more.
func (c *Controller) initialRefresh(ctx context.Context, id domain.Identity, generation uint64) (*refresh.Result, error) {
	r := c.InitialRange()
	res, err := c.refresher.RefreshAt(ctx, id, generation, r)
	if !errors.Is(err, domain.ErrRefreshInProgress) {
		return res, err
	}
	if err := c.refresher.WaitIdle(ctx); err != nil {
		return nil, fmt.Errorf("waiting for previous refresh: %w", err)
	}
	return c.refresher.RefreshAt(ctx, id, generation, r)
}

func (c *Controller) stateOf(loggedIn bool) domain.ViewState {
	if loggedIn {
		return domain.LoggedIn
	}
	return domain.LoggedOut
}

func (c *Controller) publishView(ctx context.Context, state domain.ViewState, id domain.Identity) {
	err := pubsub.Publish(context.WithoutCancel(ctx), c.publisher, events.TopicViewChanged, string(id),
		events.ViewChanged{State: state.String(), Identity: string(id)})
	if err != nil {
		c.logger.Warn("Failed to publish view change", "error", err)
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordLogin()  {}
func (nopRecorder) RecordLogout() {}
