package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/iudanet/gamelib/internal/client/api"
	"github.com/iudanet/gamelib/internal/client/auth"
	"github.com/iudanet/gamelib/internal/client/iocli"
	"github.com/iudanet/gamelib/internal/client/router"
	"github.com/iudanet/gamelib/internal/client/storage"
	"github.com/iudanet/gamelib/internal/client/storage/boltdb"
	pkgapi "github.com/iudanet/gamelib/pkg/api"
)

const (
	DefaultServerURL = "http://localhost:8080"
	DefaultDBPath    = "gamelib-client.db"
)

// Backend - методы сервера, которые нужны клиенту
type Backend interface {
	auth.APIClient
	Health(ctx context.Context) (*pkgapi.HealthResponse, error)
}

// Options - параметры запуска клиента
type Options struct {
	Logger    *slog.Logger
	IO        iocli.IO
	ServerURL string
	DBPath    string
}

// App - единственная точка сборки клиента. Владеет хранилищем сессии,
// контекстом авторизации, сервисом и router.
type App struct {
	io      iocli.IO
	closer  io.Closer
	store   *auth.TokenStore
	authCtx *auth.Context
	service *auth.Service
	router  *router.Router
}

// NewApp открывает локальную базу и собирает клиент
func NewApp(ctx context.Context, opts Options) (*App, error) {
	db, err := boltdb.New(ctx, opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	app, err := newApp(ctx, opts, db, api.NewClient(opts.ServerURL))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.closer = db
	return app, nil
}

func newApp(ctx context.Context, opts Options, sessions storage.SessionStorage, backend Backend) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stdio := opts.IO
	if stdio == nil {
		stdio = iocli.NewStdio()
	}

	store := auth.NewTokenStore(sessions, logger)
	store.Hydrate(ctx)

	authCtx := auth.NewContext(store)
	service := auth.NewService(backend, store, logger)

	r, err := router.New(authCtx, appRoutes(backend), appRedirects,
		router.WithLogger(logger),
		router.WithUnauthorizedHook(service.HandleUnauthorized),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}

	return &App{
		io:      stdio,
		store:   store,
		authCtx: authCtx,
		service: service,
		router:  r,
	}, nil
}

// Context возвращает контекст авторизации
func (a *App) Context() *auth.Context {
	return a.authCtx
}

// Router возвращает router клиента
func (a *App) Router() *router.Router {
	return a.router
}

// Close закрывает локальную базу
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
