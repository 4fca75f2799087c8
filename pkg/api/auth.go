package api

import "time"

// CredentialsRequest представляет тело запросов /auth/register и /auth/login
type CredentialsRequest struct {
	Identifier string `json:"identifier" validate:"required,identifier"` // имя пользователя (регистр не важен)
	Secret     string `json:"secret" validate:"required,secret"`         // пароль в открытом виде, только по TLS
}

// UserSummary представляет публичные данные пользователя.
// Это единственная форма пользователя, которая покидает сервер.
type UserSummary struct {
	ID         string `json:"id"`         // UUID пользователя
	Identifier string `json:"identifier"` // identifier в том виде, в каком его зарегистрировали
}

// SessionResponse представляет ответ на успешный login/register
type SessionResponse struct {
	ExpiresAt time.Time   `json:"expires_at"` // время истечения токена
	Token     string      `json:"token"`      // bearer токен сессии
	User      UserSummary `json:"user"`       // владелец сессии
}

// MeResponse представляет ответ GET /auth/me
type MeResponse struct {
	User UserSummary `json:"user"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Fields  map[string]string `json:"fields,omitempty"`  // ошибки валидации по полям
	Error   string            `json:"error"`             // описание ошибки
	Message string            `json:"message,omitempty"` // дополнительное сообщение
}
