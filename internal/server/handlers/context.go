package handlers

import (
	"context"

	"github.com/iudanet/gamelib/pkg/api"
)

type contextKey string

const (
	// UserIDKey - ключ контекста с ID аутентифицированного пользователя
	UserIDKey contextKey = "user_id"
	// userKey - ключ контекста с UserSummary аутентифицированного пользователя
	userKey contextKey = "user"
)

// WithUser сохраняет аутентифицированного пользователя в контексте
func WithUser(ctx context.Context, user api.UserSummary) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, user.ID)
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext возвращает пользователя, сохраненного auth middleware
func UserFromContext(ctx context.Context) (api.UserSummary, bool) {
	user, ok := ctx.Value(userKey).(api.UserSummary)
	return user, ok
}
