package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/gamelib/internal/client/storage"
	"github.com/iudanet/gamelib/pkg/api"
)

var (
	// ErrEmptyToken - попытка сохранить сессию без токена
	ErrEmptyToken = errors.New("session token is empty")
	// ErrNilUser - попытка сохранить сессию без пользователя
	ErrNilUser = errors.New("session user is nil")
)

// Snapshot - текущее состояние авторизации.
// Token == "" тогда и только тогда, когда User == nil.
type Snapshot struct {
	User  *api.UserSummary
	Token string
}

// Authenticated сообщает, есть ли в снимке токен
func (s Snapshot) Authenticated() bool {
	return s.Token != ""
}

// TokenStore - единственный владелец состояния авторизации на клиенте.
// Состояние меняется только после успешной записи на диск.
type TokenStore struct {
	storage   storage.SessionStorage
	logger    *slog.Logger
	listeners map[uint64]func(Snapshot)
	snapshot  Snapshot
	nextID    uint64
	mu        sync.RWMutex
	// writeMu сериализует запись на диск и смену снимка. Подписчики вызываются
	// уже без него, поэтому могут сами вызывать SetSession/ClearSession.
	writeMu sync.Mutex
}

// NewTokenStore создает хранилище поверх durable storage.
// Начальное состояние пустое, для загрузки с диска вызовите Hydrate.
func NewTokenStore(s storage.SessionStorage, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenStore{
		storage:   s,
		logger:    logger,
		listeners: make(map[uint64]func(Snapshot)),
	}
}

// SetSession сохраняет токен и пользователя
func (s *TokenStore) SetSession(ctx context.Context, token string, user *api.UserSummary) error {
	if token == "" {
		return ErrEmptyToken
	}
	if user == nil {
		return ErrNilUser
	}

	userCopy := *user
	userJSON, err := json.Marshal(userCopy)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	s.writeMu.Lock()
	if err := s.storage.SaveSession(ctx, []byte(token), userJSON); err != nil {
		s.writeMu.Unlock()
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.setSnapshot(Snapshot{Token: token, User: &userCopy})
	s.writeMu.Unlock()

	s.notify()
	return nil
}

// ClearSession удаляет сессию. Повторный вызов не ошибка.
func (s *TokenStore) ClearSession(ctx context.Context) error {
	s.writeMu.Lock()
	if err := s.storage.ClearSession(ctx); err != nil {
		s.writeMu.Unlock()
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.setSnapshot(Snapshot{})
	s.writeMu.Unlock()

	s.notify()
	return nil
}

// Token возвращает текущий токен или пустую строку
func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Token
}

// User возвращает копию текущего пользователя или nil
func (s *TokenStore) User() *api.UserSummary {
	return s.Snapshot().User
}

// Snapshot возвращает копию текущего состояния
func (s *TokenStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.snapshot)
}

// Hydrate восстанавливает состояние с диска при старте.
// Поврежденные записи удаляются, результатом будет пустой снимок.
func (s *TokenStore) Hydrate(ctx context.Context) Snapshot {
	s.writeMu.Lock()
	snap, ok := s.load(ctx)
	if !ok {
		if err := s.storage.ClearSession(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to purge corrupted session", slog.Any("error", err))
		}
	}
	s.setSnapshot(snap)
	s.writeMu.Unlock()

	s.notify()
	return copySnapshot(snap)
}

// load читает запись с диска. ok == false означает, что запись надо удалить.
func (s *TokenStore) load(ctx context.Context) (Snapshot, bool) {
	rec, err := s.storage.LoadSession(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load session", slog.Any("error", err))
		return Snapshot{}, true
	}

	hasToken := len(rec.Token) > 0
	hasUser := len(rec.User) > 0

	switch {
	case !hasToken && !hasUser:
		return Snapshot{}, true
	case !hasToken:
		s.logger.WarnContext(ctx, "stored session has user but no token")
		return Snapshot{}, false
	case !hasUser:
		s.logger.WarnContext(ctx, "stored session has token but no user")
		return Snapshot{}, false
	}

	var user api.UserSummary
	if err := json.Unmarshal(rec.User, &user); err != nil {
		s.logger.WarnContext(ctx, "stored session user is not valid JSON", slog.Any("error", err))
		return Snapshot{}, false
	}
	if user.ID == "" || user.Identifier == "" {
		s.logger.WarnContext(ctx, "stored session user is incomplete")
		return Snapshot{}, false
	}

	return Snapshot{Token: string(rec.Token), User: &user}, true
}

// Subscribe регистрирует подписчика на изменения.
// Подписчик вызывается синхронно, до возврата из мутирующего метода, и получает
// актуальный на момент вызова снимок. Из подписчика можно менять сессию.
func (s *TokenStore) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// setSnapshot делает снимок видимым. Вызывается под writeMu.
func (s *TokenStore) setSnapshot(snap Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

// notify вызывает подписчиков без удержания блокировок
func (s *TokenStore) notify() {
	s.mu.RLock()
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(s.Snapshot())
	}
}

func copySnapshot(snap Snapshot) Snapshot {
	if snap.User == nil {
		return Snapshot{Token: snap.Token}
	}
	user := *snap.User
	return Snapshot{Token: snap.Token, User: &user}
}
