package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nfrund/kpiboard/internal/chart"
	"github.com/nfrund/kpiboard/internal/datasource"
	"github.com/nfrund/kpiboard/internal/domain"
	"github.com/nfrund/kpiboard/internal/events"
	"github.com/nfrund/kpiboard/internal/kpi"
	"github.com/nfrund/kpiboard/internal/metrics"
	"github.com/nfrund/kpiboard/internal/pubsub"
	"github.com/nfrund/kpiboard/internal/refresh"
	"github.com/nfrund/kpiboard/internal/session"
	"github.com/nfrund/kpiboard/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// switchSource serves the reference scenario until failing is set.
type switchSource struct {
	failing atomic.Bool
}

func (s *switchSource) Name() string { return "switch" }

func (s *switchSource) Fetch(ctx context.Context, r domain.DateRange) (domain.RawMetrics, error) {
	if s.failing.Load() {
		return domain.RawMetrics{}, &domain.DataSourceError{Source: s.Name(), Err: errors.New("service unavailable")}
	}
	return datasource.ReferenceMetrics(r), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(ctx context.Context, msg pubsub.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, msg.Topic)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

type fixture struct {
	ctrl      *Controller
	store     *session.Store
	fs        afero.Fs
	source    *switchSource
	renderer  *chart.SVGRenderer
	sink      *chart.Sink
	publisher *recordingPublisher
	outcomes  outcomeLog

	mu        sync.Mutex
	indicator []bool
}

func (f *fixture) recordIndicator(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indicator = append(f.indicator, on)
}

// outcomeLog counts refresh outcomes by name.
type outcomeLog struct {
	mu     sync.Mutex
	counts map[string]int
}

func (l *outcomeLog) RecordRefresh(outcome string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = map[string]int{}
	}
	l.counts[outcome]++
}

func (l *outcomeLog) RecordRefreshLatency(time.Duration) {}
func (l *outcomeLog) SetLoading(bool)                    {}

func (l *outcomeLog) count(outcome string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[outcome]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	src := &switchSource{}
	f := newFixtureWith(t, src, nil)
	f.source = src
	return f
}

// newFixtureWith builds a fixture over src. A nil slots uses an in-memory backend.
func newFixtureWith(t *testing.T, src datasource.Source, slots storage.Store) *fixture {
	t.Helper()
	f := &fixture{
		fs:        afero.NewMemMapFs(),
		renderer:  chart.NewSVGRenderer(),
		publisher: &recordingPublisher{},
	}
	if slots == nil {
		slots = storage.NewAferoStore(f.fs, "data")
	}
	f.store = session.NewStore(slots)
	f.sink = chart.NewSink(f.renderer, "performanceChart", chart.DefaultOptions())
	refresher := refresh.NewController(src, f.sink, kpi.NewFormatter(language.English, "$"),
		refresh.WithPublisher(f.publisher),
		refresh.WithIndicator(f.recordIndicator),
		refresh.WithRecorder(&f.outcomes),
	)
	f.ctrl = NewController(f.store, refresher, f.sink,
		WithPublisher(f.publisher),
		WithClock(func() time.Time { return time.Date(2024, 2, 11, 15, 0, 0, 0, time.UTC) }),
		WithRangeDays(42),
	)
	return f
}

// assertConsistent checks that the visible view matches the stored identity.
func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()
	_, stored, err := f.store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored, f.ctrl.State() == domain.LoggedIn)
}

func TestController_FreshStartShowsLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Start(ctx))
	assert.Equal(t, domain.LoggedOut, f.ctrl.State())
	assert.Equal(t, 0, f.renderer.Live())
	f.assertConsistent(t)

	res, err := f.ctrl.Login(ctx, "a@b.com", "x")
	require.NoError(t, err)

	id, ok, err := f.store.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Identity("a@b.com"), id)
	assert.Equal(t, domain.LoggedIn, f.ctrl.State())
	assert.Equal(t, 1, f.renderer.Live())

	// The initial range ends today and spans the configured number of days.
	assert.Equal(t, "2024-01-01", res.Range.StartString())
	assert.Equal(t, "2024-02-11", res.Range.EndString())
	assert.Equal(t, 20300.0, res.Snapshot.Spend)
	assert.Equal(t, "$ 20,300.00", res.Display.Spend)
	assert.Equal(t, 1, f.publisher.count(events.TopicViewChanged.Name()))
	f.assertConsistent(t)
}

func TestController_StartWithStoredIdentityEntersDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, "c@d.com"))

	require.NoError(t, f.ctrl.Start(ctx))

	id, ok := f.ctrl.Identity()
	assert.True(t, ok)
	assert.Equal(t, domain.Identity("c@d.com"), id)
	assert.Equal(t, 1, f.renderer.Live())
	assert.NotNil(t, f.ctrl.Status().Refresh.Last)
}

func TestController_StartToleratesFailingSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, "c@d.com"))
	f.source.failing.Store(true)

	require.NoError(t, f.ctrl.Start(ctx))
	assert.Equal(t, domain.LoggedIn, f.ctrl.State())
	assert.Equal(t, 0, f.renderer.Live())
	assert.Equal(t, []bool{true, false}, f.indicator)
}

func TestController_LoginRejectsEmptyFields(t *testing.T) {
	cases := []struct{ email, password string }{
		{"", "x"},
		{"a@b.com", ""},
		{"   ", "x"},
	}
	for _, tc := range cases {
		f := newFixture(t)
		_, err := f.ctrl.Login(context.Background(), tc.email, tc.password)

		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.ErrorIs(t, err, domain.ErrEmptyCredentials)
		assert.Equal(t, domain.LoggedOut, f.ctrl.State())
		assert.Empty(t, f.indicator)
		f.assertConsistent(t)
	}
}

func TestController_FetchUpdatesOrKeepsDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Login(ctx, "a@b.com", "x")
	require.NoError(t, err)
	initial := f.ctrl.Status()

	r, err := domain.ParseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	res, err := f.ctrl.Refresh(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, initial.ChartHandle, res.Handle.ID.String())
	assert.NotEqual(t, initial.Refresh.Last.Snapshot, res.Snapshot)
	assert.Equal(t, []bool{true, false, true, false}, f.indicator)

	f.source.failing.Store(true)
	_, err = f.ctrl.Refresh(ctx, r)
	require.Error(t, err)
	assert.True(t, domain.IsDataSource(err))

	st := f.ctrl.Status()
	assert.Equal(t, res, st.Refresh.Last)
	assert.Equal(t, domain.Idle, st.Refresh.State)
	assert.Equal(t, initial.ChartHandle, st.ChartHandle)
	assert.Equal(t, []bool{true, false, true, false, true, false}, f.indicator)
	assert.Equal(t, 1, f.publisher.count(events.TopicRefreshFailed.Name()))
}

func TestController_LogoutDestroysChartAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctrl.Login(ctx, "a@b.com", "x")
	require.NoError(t, err)
	require.Equal(t, 1, f.renderer.Live())

	f.ctrl.Logout(ctx)
	assert.Equal(t, domain.LoggedOut, f.ctrl.State())
	assert.Equal(t, 0, f.renderer.Live())
	_, ok := f.sink.Handle()
	assert.False(t, ok)
	assert.Nil(t, f.ctrl.Status().Refresh.Last)
	f.assertConsistent(t)

	views := f.publisher.count(events.TopicViewChanged.Name())
	f.ctrl.Logout(ctx)
	assert.Equal(t, domain.LoggedOut, f.ctrl.State())
	assert.Equal(t, views, f.publisher.count(events.TopicViewChanged.Name()))
	f.assertConsistent(t)
}

func TestController_RefreshRequiresSession(t *testing.T) {
	f := newFixture(t)
	r, err := domain.ParseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	_, err = f.ctrl.Refresh(context.Background(), r)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
	assert.Empty(t, f.indicator)
}

func TestController_ViewMatchesSessionOverEventSequences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Start(ctx))

	steps := []string{"login", "logout", "logout", "login", "login", "logout", "bad-login", "login", "logout"}
	for _, step := range steps {
		switch step {
		case "login":
			_, err := f.ctrl.Login(ctx, "a@b.com", "x")
			require.NoError(t, err)
		case "bad-login":
			_, err := f.ctrl.Login(ctx, "", "")
			require.Error(t, err)
		case "logout":
			f.ctrl.Logout(ctx)
		}
		f.assertConsistent(t)
		assert.LessOrEqual(t, f.renderer.Live(), 1, "after %s", step)
	}
}

// holdFirstSource blocks the first fetch until release is closed; later fetches return at once.
type holdFirstSource struct {
	held    atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newHoldFirstSource() *holdFirstSource {
	return &holdFirstSource{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (s *holdFirstSource) Name() string { return "hold-first" }

func (s *holdFirstSource) Fetch(ctx context.Context, r domain.DateRange) (domain.RawMetrics, error) {
	if s.held.CompareAndSwap(false, true) {
		s.entered <- struct{}{}
		<-s.release
	}
	return datasource.ReferenceMetrics(r), nil
}

type loginOutcome struct {
	res *refresh.Result
	err error
}

func loginAsync(c *Controller, email string) <-chan loginOutcome {
	done := make(chan loginOutcome, 1)
	go func() {
		res, err := c.Login(context.Background(), email, "x")
		done <- loginOutcome{res, err}
	}()
	return done
}

func TestController_ReloginWhileEarlierRefreshIsLoading(t *testing.T) {
	src := newHoldFirstSource()
	f := newFixtureWith(t, src, nil)
	ctx := context.Background()

	first := loginAsync(f.ctrl, "a@b.com")
	<-src.entered

	f.ctrl.Logout(ctx)
	second := loginAsync(f.ctrl, "e@f.com")

	// The new session's initial refresh finds the old one still loading.
	require.Eventually(t, func() bool {
		return f.outcomes.count(metrics.OutcomeRejected) == 1
	}, 2*time.Second, 5*time.Millisecond)
	close(src.release)

	out := <-first
	assert.ErrorIs(t, out.err, refresh.ErrDiscarded)

	out = <-second
	require.NoError(t, out.err)
	require.NotNil(t, out.res)

	id, ok := f.ctrl.Identity()
	assert.True(t, ok)
	assert.Equal(t, domain.Identity("e@f.com"), id)
	assert.Equal(t, 1, f.renderer.Live())

	st := f.ctrl.Status()
	require.NotNil(t, st.Refresh.Last)
	assert.Equal(t, out.res, st.Refresh.Last)
	assert.Equal(t, "$ 20,300.00", st.Refresh.Last.Display.Spend)
	assert.Equal(t, out.res.Handle.ID.String(), st.ChartHandle)
	assert.Equal(t, domain.Idle, st.Refresh.State)
	f.assertConsistent(t)
}

// stuckSlots refuses to remove or blank a slot once stuck is set.
type stuckSlots struct {
	storage.Store
	stuck atomic.Bool
}

func (s *stuckSlots) Remove(ctx context.Context, key string) error {
	if s.stuck.Load() {
		return errors.New("permission denied")
	}
	return s.Store.Remove(ctx, key)
}

func (s *stuckSlots) Write(ctx context.Context, key, value string) error {
	if s.stuck.Load() {
		return errors.New("read-only file system")
	}
	return s.Store.Write(ctx, key, value)
}

func TestController_LogoutReportsSessionThatCouldNotBeCleared(t *testing.T) {
	slots := &stuckSlots{Store: storage.NewAferoStore(afero.NewMemMapFs(), "data")}
	f := newFixtureWith(t, &switchSource{}, slots)
	ctx := context.Background()

	_, err := f.ctrl.Login(ctx, "a@b.com", "x")
	require.NoError(t, err)

	slots.stuck.Store(true)
	f.ctrl.Logout(ctx)

	st := f.ctrl.Status()
	assert.Equal(t, domain.LoggedOut, st.View)
	assert.Contains(t, st.SessionError, "permission denied")
	assert.Equal(t, 0, f.renderer.Live())

	// Once the slot can be removed again, the next logout clears it and the error.
	slots.stuck.Store(false)
	f.ctrl.Logout(ctx)
	assert.Empty(t, f.ctrl.Status().SessionError)
	f.assertConsistent(t)
}
