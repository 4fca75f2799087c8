package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/gamelib/internal/server/session"
	"github.com/iudanet/gamelib/internal/validation"
	"github.com/iudanet/gamelib/pkg/api"
)

// SessionIssuer проверяет учетные данные и выпускает токены
type SessionIssuer interface {
	Login(ctx context.Context, identifier, secret string) (*session.Session, error)
	Register(ctx context.Context, identifier, secret string) (*session.Session, error)
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	logger *slog.Logger
	issuer SessionIssuer
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, issuer SessionIssuer) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		issuer: issuer,
	}
}

// Register обрабатывает POST /auth/register
// Регистрация нового пользователя и выдача токена
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.issuer.Register, http.StatusCreated)
}

// Login обрабатывает POST /auth/login
// Аутентификация пользователя
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.issuer.Login, http.StatusOK)
}

// Me обрабатывает GET /auth/me
// Возвращает пользователя, которому принадлежит токен
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sendJSON(h.logger, w, api.MeResponse{User: user}, http.StatusOK)
}

type issueFunc func(ctx context.Context, identifier, secret string) (*session.Session, error)

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, issue issueFunc, successStatus int) {
	ctx := r.Context()

	var req api.CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode credentials request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := issue(ctx, req.Identifier, req.Secret)
	if err != nil {
		h.handleIssueError(ctx, w, err)
		return
	}

	sendJSON(h.logger, w, sess.Response(), successStatus)
}

func (h *AuthHandler) handleIssueError(ctx context.Context, w http.ResponseWriter, err error) {
	var verrs validation.Errors

	switch {
	case errors.As(err, &verrs):
		sendValidationError(h.logger, w, verrs)
	case errors.Is(err, session.ErrInvalidCredentials):
		sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, session.ErrIdentifierTaken):
		sendError(h.logger, w, "identifier already taken", http.StatusConflict)
	default:
		h.logger.ErrorContext(ctx, "failed to issue session", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}
