package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gamelib/internal/client/api"
	"github.com/iudanet/gamelib/internal/client/auth"
)

// fakeSession - изменяемый источник снимков для тестов
type fakeSession struct {
	snap auth.Snapshot
	mu   sync.Mutex
}

func (f *fakeSession) Snapshot() auth.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSession) set(snap auth.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
}

func staticLoader(name, out string, calls *int32) Loader {
	return Loader{
		Name: name,
		Load: func(context.Context, auth.Snapshot) (string, error) {
			if calls != nil {
				atomic.AddInt32(calls, 1)
			}
			return out, nil
		},
	}
}

func testRoutes(gamesLoaders ...Loader) []Route {
	return []Route{
		{Path: "/", Access: AccessPublic},
		{Path: "/login", Access: AccessGuest},
		{Path: "/register", Access: AccessGuest},
		{Path: "/games", Access: AccessAuthenticated, Loaders: gamesLoaders},
		{Path: "/platforms", Access: AccessAuthenticated},
	}
}

func newTestRouter(t *testing.T, session SnapshotSource, routes []Route, opts ...Option) *Router {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	r, err := New(session, routes, testRedirects, opts...)
	require.NoError(t, err)
	return r
}

func TestNew_Validation(t *testing.T) {
	session := &fakeSession{}

	_, err := New(session, []Route{{Path: "/login"}, {Path: "/login"}, {Path: "/games"}}, testRedirects)
	assert.ErrorContains(t, err, "duplicate route")

	_, err = New(session, []Route{{Path: ""}}, testRedirects)
	assert.ErrorContains(t, err, "empty path")

	_, err = New(session, []Route{{Path: "/login"}}, testRedirects)
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, &fakeSession{}, testRoutes())

	var paths []string
	for _, route := range r.Routes() {
		paths = append(paths, route.Path)
	}
	assert.Equal(t, []string{"/", "/games", "/login", "/platforms", "/register"}, paths)
}

func TestRouter_ProtectedRedirectsToLogin(t *testing.T) {
	var calls int32
	r := newTestRouter(t, &fakeSession{}, testRoutes(staticLoader("games", "list", &calls)))

	nav, err := r.Navigate(context.Background(), "/games")
	require.NoError(t, err)

	require.Len(t, nav.Decisions, 2)
	assert.Equal(t, Decision{Path: "/games", State: StateRedirected, Target: "/login"}, nav.Decisions[0])
	assert.Equal(t, Decision{Path: "/login", State: StateAllowed}, nav.Final)
	assert.Equal(t, "/login", nav.Route.Path)
	assert.True(t, nav.Redirected())
	assert.False(t, nav.Replaced)

	// загрузчики защищенного маршрута не запускались
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"/login"}, r.History().Entries())
}

func TestRouter_GuestRedirectReplacesHistory(t *testing.T) {
	session := &fakeSession{}
	r := newTestRouter(t, session, testRoutes())

	_, err := r.Navigate(context.Background(), "/")
	require.NoError(t, err)

	session.set(signedIn())
	nav, err := r.Navigate(context.Background(), "/login")
	require.NoError(t, err)

	assert.Equal(t, "/games", nav.Route.Path)
	assert.True(t, nav.Replaced)
	assert.Equal(t, []string{"/games"}, r.History().Entries())
}

func TestRouter_AllowedRunsLoadersOnce(t *testing.T) {
	var games, stats int32
	session := &fakeSession{snap: signedIn()}
	r := newTestRouter(t, session, testRoutes(
		staticLoader("games", "3 games", &games),
		staticLoader("stats", "42 hours", &stats),
	))

	nav, err := r.Navigate(context.Background(), "/games")
	require.NoError(t, err)

	assert.False(t, nav.Redirected())
	assert.Equal(t, StateAllowed, nav.Final.State)
	assert.Equal(t, int32(1), atomic.LoadInt32(&games))
	assert.Equal(t, int32(1), atomic.LoadInt32(&stats))
	require.Len(t, nav.Results, 2)
	assert.Equal(t, LoaderResult{Name: "games", Output: "3 games"}, nav.Results[0])
	assert.Equal(t, LoaderResult{Name: "stats", Output: "42 hours"}, nav.Results[1])
}

func TestRouter_LoadersRunConcurrently(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	blocking := func(name string) Loader {
		return Loader{Name: name, Load: func(ctx context.Context, _ auth.Snapshot) (string, error) {
			started <- struct{}{}
			select {
			case <-release:
				return name, nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}}
	}

	r := newTestRouter(t, &fakeSession{snap: signedIn()}, testRoutes(blocking("a"), blocking("b")))

	done := make(chan error, 1)
	go func() {
		_, err := r.Navigate(context.Background(), "/games")
		done <- err
	}()

	// оба загрузчика стартуют до того, как любой из них завершится
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("loaders did not start concurrently")
		}
	}
	close(release)
	require.NoError(t, <-done)
}

func TestRouter_LoaderSeesSnapshot(t *testing.T) {
	var seen auth.Snapshot
	loader := Loader{Name: "profile", Load: func(_ context.Context, snap auth.Snapshot) (string, error) {
		seen = snap
		return snap.User.Identifier, nil
	}}

	r := newTestRouter(t, &fakeSession{snap: signedIn()}, testRoutes(loader))
	nav, err := r.Navigate(context.Background(), "/games")
	require.NoError(t, err)

	assert.Equal(t, "token", seen.Token)
	assert.Equal(t, "alice", nav.Results[0].Output)
}

func TestRouter_UnknownRoute(t *testing.T) {
	r := newTestRouter(t, &fakeSession{}, testRoutes())

	_, err := r.Navigate(context.Background(), "/nope")
	assert.ErrorIs(t, err, ErrRouteNotFound)
	assert.Empty(t, r.History().Entries())
}

func TestRouter_RedirectLoop(t *testing.T) {
	// login требует сессии: /games -> /login -> /login -> ...
	routes := []Route{
		{Path: "/login", Access: AccessAuthenticated},
		{Path: "/games", Access: AccessAuthenticated},
	}
	r := newTestRouter(t, &fakeSession{}, routes)

	nav, err := r.Navigate(context.Background(), "/games")
	assert.ErrorIs(t, err, ErrRedirectLoop)
	assert.Len(t, nav.Decisions, MaxRedirects+1)
	assert.Empty(t, r.History().Entries())
}

func TestRouter_UnauthorizedLoaderInvokesHook(t *testing.T) {
	session := &fakeSession{snap: signedIn()}
	hookCalls := 0

	loader := Loader{Name: "profile", Load: func(context.Context, auth.Snapshot) (string, error) {
		return "", fmt.Errorf("me request failed: %w", api.ErrUnauthorized)
	}}

	r := newTestRouter(t, session, testRoutes(loader), WithUnauthorizedHook(func(ctx context.Context) {
		require.NoError(t, ctx.Err())
		hookCalls++
		session.set(auth.Snapshot{})
	}))

	_, err := r.Navigate(context.Background(), "/games")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, 1, hookCalls)

	// следующая навигация уже видит пустую сессию
	nav, err := r.Navigate(context.Background(), "/games")
	require.NoError(t, err)
	assert.Equal(t, "/login", nav.Route.Path)
}

func TestRouter_OtherLoaderErrorSkipsHook(t *testing.T) {
	hookCalls := 0
	boom := errors.New("boom")
	loader := Loader{Name: "games", Load: func(context.Context, auth.Snapshot) (string, error) {
		return "", boom
	}}

	r := newTestRouter(t, &fakeSession{snap: signedIn()}, testRoutes(loader),
		WithUnauthorizedHook(func(context.Context) { hookCalls++ }))

	nav, err := r.Navigate(context.Background(), "/games")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, hookCalls)
	require.Len(t, nav.Results, 1)
	assert.ErrorIs(t, nav.Results[0].Err, boom)
}

func TestRouter_NewNavigationSupersedesPrevious(t *testing.T) {
	started := make(chan struct{})
	slow := Loader{Name: "slow", Load: func(ctx context.Context, _ auth.Snapshot) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}}

	r := newTestRouter(t, &fakeSession{snap: signedIn()}, testRoutes(slow))

	done := make(chan error, 1)
	go func() {
		_, err := r.Navigate(context.Background(), "/games")
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first navigation did not start")
	}

	_, err := r.Navigate(context.Background(), "/platforms")
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("first navigation was not cancelled")
	}
	assert.Equal(t, "/platforms", r.History().Current())
}

func TestRouter_ParentContextCancelled(t *testing.T) {
	slow := Loader{Name: "slow", Load: func(ctx context.Context, _ auth.Snapshot) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	r := newTestRouter(t, &fakeSession{snap: signedIn()}, testRoutes(slow))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Navigate(ctx, "/games")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRouter_WithTokenStore(t *testing.T) {
	store := auth.NewTokenStore(&memorySessionStorage{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	authCtx := auth.NewContext(store)
	r := newTestRouter(t, authCtx, testRoutes())

	nav, err := r.Navigate(context.Background(), "/games")
	require.NoError(t, err)
	assert.Equal(t, "/login", nav.Route.Path)

	require.NoError(t, store.SetSession(context.Background(), "token", signedIn().User))

	// guard сразу видит новую сессию
	nav, err = r.Navigate(context.Background(), "/games")
	require.NoError(t, err)
	assert.Equal(t, "/games", nav.Route.Path)

	nav, err = r.Navigate(context.Background(), "/register")
	require.NoError(t, err)
	assert.Equal(t, "/games", nav.Route.Path)
	assert.True(t, nav.Replaced)
}

// changingSession отдает сессию только при первом чтении
type changingSession struct {
	reads int32
}

func (c *changingSession) Snapshot() auth.Snapshot {
	if atomic.AddInt32(&c.reads, 1) == 1 {
		return signedIn()
	}
	return auth.Snapshot{}
}

func TestRouter_LoadersUseGuardSnapshot(t *testing.T) {
	var seen auth.Snapshot
	loader := Loader{Name: "profile", Load: func(_ context.Context, snap auth.Snapshot) (string, error) {
		seen = snap
		return "", nil
	}}

	session := &changingSession{}
	r := newTestRouter(t, session, testRoutes(loader))

	nav, err := r.Navigate(context.Background(), "/games")
	require.NoError(t, err)

	assert.Equal(t, StateAllowed, nav.Final.State)
	assert.Equal(t, "/games", nav.Route.Path)
	// сессия сменилась после решения guard, загрузчик видит то же состояние, что и guard
	assert.Equal(t, "token", seen.Token)
	assert.Equal(t, "token", nav.Snapshot.Token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&session.reads))
}
