package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/gamelib/internal/client/api"
	"github.com/iudanet/gamelib/internal/client/auth"
)

// MaxRedirects - сколько перенаправлений подряд допускается за одну навигацию
const MaxRedirects = 5

var (
	// ErrRouteNotFound - путь не зарегистрирован
	ErrRouteNotFound = errors.New("route not found")
	// ErrRedirectLoop - цепочка перенаправлений длиннее MaxRedirects
	ErrRedirectLoop = errors.New("redirect loop")
	// ErrSuperseded - навигацию отменила более поздняя
	ErrSuperseded = errors.New("navigation superseded")
)

// LoaderFunc загружает данные маршрута
type LoaderFunc func(ctx context.Context, snap auth.Snapshot) (string, error)

// Loader - именованный загрузчик данных маршрута
type Loader struct {
	Load LoaderFunc
	Name string
}

// Route - определение маршрута
type Route struct {
	Path    string
	Title   string
	Loaders []Loader
	Access  Access
}

// LoaderResult - результат одного загрузчика
type LoaderResult struct {
	Err    error
	Name   string
	Output string
}

// Navigation - итог одной навигации
type Navigation struct {
	Route     Route
	Snapshot  auth.Snapshot // состояние, по которому решал guard и работали загрузчики
	Requested string
	Decisions []Decision // вся цепочка решений, последнее равно Final
	Final     Decision
	Results   []LoaderResult
	Replaced  bool // запись в истории заменена, а не добавлена
}

// Redirected сообщает, было ли хотя бы одно перенаправление
func (n *Navigation) Redirected() bool {
	return len(n.Decisions) > 1
}

// SnapshotSource - откуда router читает состояние авторизации
type SnapshotSource interface {
	Snapshot() auth.Snapshot
}

// Option настраивает Router
type Option func(*Router)

// WithLogger задает логгер
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithUnauthorizedHook задает обработчик ответа 401 от загрузчика
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(r *Router) {
		r.onUnauthorized = fn
	}
}

// Router проверяет guard на каждой навигации и запускает загрузчики
type Router struct {
	session        SnapshotSource
	logger         *slog.Logger
	onUnauthorized func(ctx context.Context)
	routes         map[string]Route
	cancel         context.CancelFunc
	history        History
	redirects      Redirects
	seq            uint64
	mu             sync.Mutex
}

// New создает router. Пути маршрутов должны быть уникальны.
func New(session SnapshotSource, routes []Route, redirects Redirects, opts ...Option) (*Router, error) {
	r := &Router{
		session:   session,
		logger:    slog.Default(),
		routes:    make(map[string]Route, len(routes)),
		redirects: redirects,
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, route := range routes {
		if route.Path == "" {
			return nil, fmt.Errorf("route with empty path")
		}
		if _, ok := r.routes[route.Path]; ok {
			return nil, fmt.Errorf("duplicate route %q", route.Path)
		}
		r.routes[route.Path] = route
	}

	for _, target := range []string{redirects.Login, redirects.Landing} {
		if _, ok := r.routes[target]; !ok {
			return nil, fmt.Errorf("redirect target %q: %w", target, ErrRouteNotFound)
		}
	}

	return r, nil
}

// Routes возвращает маршруты, отсортированные по пути
func (r *Router) Routes() []Route {
	out := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// History возвращает историю навигации
func (r *Router) History() *History {
	return &r.history
}

// Navigate открывает path: guard, история, затем загрузчики итогового маршрута.
// Новая навигация отменяет контекст предыдущей.
func (r *Router) Navigate(ctx context.Context, path string) (*Navigation, error) {
	navCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.seq == seq {
			r.cancel = nil
		}
		r.mu.Unlock()
	}()

	nav, err := r.resolve(path)
	if err != nil {
		return nav, err
	}

	if nav.Replaced {
		r.history.Replace(nav.Route.Path)
	} else {
		r.history.Push(nav.Route.Path)
	}

	if nav.Redirected() {
		r.logger.DebugContext(ctx, "navigation redirected",
			slog.String("requested", path),
			slog.String("final", nav.Route.Path))
	}

	if err := r.load(navCtx, nav); err != nil {
		if navCtx.Err() != nil && ctx.Err() == nil {
			return nav, ErrSuperseded
		}
		return nav, err
	}

	return nav, nil
}

// resolve проходит цепочку решений guard до разрешенного маршрута
func (r *Router) resolve(path string) (*Navigation, error) {
	// снимок берется один раз: и guard, и загрузчики видят одно состояние
	snap := r.session.Snapshot()
	nav := &Navigation{Requested: path, Snapshot: snap}

	current := path
	for hops := 0; ; hops++ {
		route, ok := r.routes[current]
		if !ok {
			return nav, fmt.Errorf("%q: %w", current, ErrRouteNotFound)
		}

		decision := Evaluate(route, snap, r.redirects)
		nav.Decisions = append(nav.Decisions, decision)

		if decision.State == StateAllowed {
			nav.Final = decision
			nav.Route = route
			return nav, nil
		}

		if hops >= MaxRedirects {
			return nav, fmt.Errorf("%q after %d redirects: %w", path, hops, ErrRedirectLoop)
		}
		nav.Replaced = decision.Replace
		current = decision.Target
	}
}

// load запускает каждый загрузчик ровно один раз, параллельно
func (r *Router) load(ctx context.Context, nav *Navigation) error {
	loaders := nav.Route.Loaders
	if len(loaders) == 0 {
		return nil
	}

	snap := nav.Snapshot
	results := make([]LoaderResult, len(loaders))

	g, gctx := errgroup.WithContext(ctx)
	for i, loader := range loaders {
		g.Go(func() error {
			out, err := loader.Load(gctx, snap)
			results[i] = LoaderResult{Name: loader.Name, Output: out, Err: err}
			if err != nil {
				return fmt.Errorf("loader %s: %w", loader.Name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	nav.Results = results

	if err != nil && errors.Is(err, api.ErrUnauthorized) && r.onUnauthorized != nil {
		r.logger.WarnContext(ctx, "loader rejected by server", slog.String("route", nav.Route.Path))
		// контекст errgroup к этому моменту отменен
		r.onUnauthorized(context.WithoutCancel(ctx))
	}

	return err
}
