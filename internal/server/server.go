// Package server собирает HTTP API: хранилище учетных записей, выпуск сессий,
// middleware и маршруты.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/iudanet/gamelib/internal/crypto"
	"github.com/iudanet/gamelib/internal/server/config"
	"github.com/iudanet/gamelib/internal/server/handlers"
	"github.com/iudanet/gamelib/internal/server/metrics"
	"github.com/iudanet/gamelib/internal/server/middleware"
	"github.com/iudanet/gamelib/internal/server/session"
	"github.com/iudanet/gamelib/internal/server/storage"
	"github.com/iudanet/gamelib/internal/server/storage/postgres"
	"github.com/iudanet/gamelib/internal/server/storage/sqlite"
	"github.com/iudanet/gamelib/internal/server/token"
)

// Issuer is the session surface the HTTP layer needs
type Issuer interface {
	handlers.SessionIssuer
	middleware.SessionResolver
}

// CredentialStore is a user storage that can be pinged and closed
type CredentialStore interface {
	storage.UserStorage
	storage.Pinger
	io.Closer
}

// RouterDeps содержит зависимости HTTP маршрутов
type RouterDeps struct {
	Logger      *slog.Logger
	Issuer      Issuer
	Store       storage.Pinger
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	Version     string
	CORSOrigins []string
}

// NewRouter создает chi router со всеми маршрутами API.
// Маршруты доступны в корне и под /api/v1.
func NewRouter(d RouterDeps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Logger, d.Issuer)
	healthHandler := handlers.NewHealthHandler(d.Logger, d.Store, d.Version)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(d.Logger, "/health", "/metrics"))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))

	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.SendError(d.Logger, w, "route not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.SendError(d.Logger, w, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Handle("/metrics", d.Metrics.Handler())

	routes := func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if d.RateLimiter != nil {
					r.Use(middleware.RateLimit(d.RateLimiter, d.Logger))
				}
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})

			r.With(middleware.RequireAuth(d.Logger, d.Issuer)).Get("/me", authHandler.Me)
		})
	}

	routes(r)
	r.Route("/api/v1", routes)

	return r
}

// OpenStorage открывает хранилище учетных записей выбранного драйвера и применяет миграции
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (CredentialStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Server is the runnable HTTP API
type Server struct {
	httpServer      *http.Server
	logger          *slog.Logger
	store           CredentialStore
	limiter         *middleware.RateLimiter
	shutdownTimeout time.Duration
}

// New собирает сервер из конфигурации: хранилище, hasher, codec, issuer, маршруты
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	store, err := OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	srv, err := newWithStore(cfg, logger, version, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return srv, nil
}

func newWithStore(cfg *config.Config, logger *slog.Logger, version string, store CredentialStore) (*Server, error) {
	hasher, err := crypto.NewHasher(cfg.Hash.HasherConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create hasher: %w", err)
	}

	codec, err := token.NewCodec(token.Config{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}

	m := metrics.New()

	issuer, err := session.NewIssuer(store, hasher, codec, session.Options{
		Logger:      logger.With(slog.String("component", "session")),
		Recorder:    m,
		HashWorkers: cfg.Hash.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session issuer: %w", err)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	handler := NewRouter(RouterDeps{
		Logger:      logger,
		Issuer:      issuer,
		Store:       store,
		Metrics:     m,
		RateLimiter: limiter,
		Version:     version,
		CORSOrigins: cfg.CORS.AllowedOrigins,
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger:          logger,
		store:           store,
		limiter:         limiter,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run обслуживает запросы до отмены ctx, затем выполняет graceful shutdown
// и закрывает хранилище
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.close()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve обслуживает запросы на ln до отмены ctx
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.close()

	s.httpServer.BaseContext = func(net.Listener) context.Context { return context.WithoutCancel(ctx) }

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", slog.String("addr", ln.Addr().String()))
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

func (s *Server) close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("failed to close storage", slog.Any("error", err))
	}
}
