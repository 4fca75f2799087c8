package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/gamelib/internal/server/handlers"
	"github.com/iudanet/gamelib/internal/server/session"
	"github.com/iudanet/gamelib/pkg/api"
)

// SessionResolver возвращает владельца токена сессии
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*api.UserSummary, error)
}

// RequireAuth создает middleware для проверки bearer токена.
// Владелец токена кладется в контекст запроса (handlers.UserFromContext).
func RequireAuth(logger *slog.Logger, resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "missing or malformed Authorization header")
				handlers.SendError(logger, w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			user, err := resolver.ResolveSession(ctx, token)
			if err != nil {
				if errors.Is(err, session.ErrUnauthorized) {
					handlers.SendError(logger, w, "invalid or expired token", http.StatusUnauthorized)
					return
				}
				logger.ErrorContext(ctx, "failed to resolve session", slog.Any("error", err))
				handlers.SendError(logger, w, "internal server error", http.StatusInternalServerError)
				return
			}

			logger.DebugContext(ctx, "user authenticated", slog.String("user_id", user.ID))

			next.ServeHTTP(w, r.WithContext(handlers.WithUser(ctx, *user)))
		})
	}
}

// bearerToken извлекает токен из заголовка "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
