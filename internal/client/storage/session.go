package storage

import (
	"context"
	"errors"
)

// ErrStorageClosed indicates that storage is closed
var ErrStorageClosed = errors.New("storage is closed")

// SessionRecord - сырые записи сессии в том виде, в каком они лежат на диске.
// Любое поле может быть nil, если запись отсутствует.
type SessionRecord struct {
	Token []byte
	User  []byte // JSON api.UserSummary
}

// SessionStorage defines durable storage for the client session.
// It works with raw bytes and does not interpret them.
type SessionStorage interface {
	// SaveSession записывает токен и пользователя одной транзакцией
	SaveSession(ctx context.Context, token, user []byte) error

	// LoadSession возвращает сохраненные записи.
	// Отсутствие сессии не ошибка: поля записи будут nil.
	LoadSession(ctx context.Context) (*SessionRecord, error)

	// ClearSession удаляет обе записи одной транзакцией. Повторный вызов не ошибка.
	ClearSession(ctx context.Context) error
}
