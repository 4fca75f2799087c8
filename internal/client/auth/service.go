package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/gamelib/internal/client/api"
	"github.com/iudanet/gamelib/internal/validation"
	pkgapi "github.com/iudanet/gamelib/pkg/api"
)

// ErrNotAuthenticated - операция требует сессии, а ее нет
var ErrNotAuthenticated = errors.New("not authenticated")

// APIClient - методы сервера, нужные сервису авторизации
type APIClient interface {
	Register(ctx context.Context, req pkgapi.CredentialsRequest) (*pkgapi.SessionResponse, error)
	Login(ctx context.Context, req pkgapi.CredentialsRequest) (*pkgapi.SessionResponse, error)
	Me(ctx context.Context, token string) (*pkgapi.UserSummary, error)
}

// Service предоставляет функции авторизации.
// Все изменения состояния идут через TokenStore.
type Service struct {
	apiClient APIClient
	store     *TokenStore
	logger    *slog.Logger
}

// NewService создает новый сервис авторизации
func NewService(apiClient APIClient, store *TokenStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
	}
}

// Register регистрирует нового пользователя и сохраняет сессию
func (s *Service) Register(ctx context.Context, identifier, secret string) (*pkgapi.SessionResponse, error) {
	req := pkgapi.CredentialsRequest{Identifier: identifier, Secret: secret}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	if err := s.store.SetSession(ctx, resp.Token, &resp.User); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.DebugContext(ctx, "registered", slog.String("user_id", resp.User.ID))
	return resp, nil
}

// Login выполняет аутентификацию пользователя и сохраняет сессию
func (s *Service) Login(ctx context.Context, identifier, secret string) (*pkgapi.SessionResponse, error) {
	if err := validation.Login(identifier, secret); err != nil {
		return nil, err
	}

	req := pkgapi.CredentialsRequest{Identifier: identifier, Secret: secret}
	resp, err := s.apiClient.Login(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if err := s.store.SetSession(ctx, resp.Token, &resp.User); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.DebugContext(ctx, "logged in", slog.String("user_id", resp.User.ID))
	return resp, nil
}

// Logout удаляет локальную сессию. Серверного logout нет.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("failed to delete local session: %w", err)
	}
	return nil
}

// Me запрашивает владельца текущего токена.
// При 401 локальная сессия удаляется.
func (s *Service) Me(ctx context.Context) (*pkgapi.UserSummary, error) {
	token := s.store.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	user, err := s.apiClient.Me(ctx, token)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.HandleUnauthorized(ctx)
		}
		return nil, err
	}
	return user, nil
}

// HandleUnauthorized сбрасывает сессию после ответа 401 от сервера
func (s *Service) HandleUnauthorized(ctx context.Context) {
	if s.store.Token() == "" {
		return
	}
	s.logger.WarnContext(ctx, "session rejected by server, clearing local session")
	if err := s.store.ClearSession(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear rejected session", slog.Any("error", err))
	}
}
