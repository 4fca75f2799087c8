// Package session проверяет учетные данные и выпускает токены сессии.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/iudanet/gamelib/internal/crypto"
	"github.com/iudanet/gamelib/internal/models"
	"github.com/iudanet/gamelib/internal/server/metrics"
	"github.com/iudanet/gamelib/internal/server/storage"
	"github.com/iudanet/gamelib/internal/server/token"
	"github.com/iudanet/gamelib/internal/validation"
	"github.com/iudanet/gamelib/pkg/api"
)

var (
	// ErrInvalidCredentials возвращается и для неизвестного identifier, и для неверного пароля
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIdentifierTaken возвращается при регистрации занятого identifier (в любом регистре)
	ErrIdentifierTaken = errors.New("identifier already taken")
	// ErrUnauthorized возвращается для отсутствующего, поврежденного или истекшего токена
	ErrUnauthorized = errors.New("unauthorized")
)

// Операции для метрик и логов
const (
	OperationLogin    = "login"
	OperationRegister = "register"
	OperationResolve  = "resolve"
)

// decoySecret хешируется при старте; с ним сравнивается пароль для неизвестного identifier
const decoySecret = "gamelib-decoy-secret"

// Recorder receives auth outcomes and hashing timings
type Recorder interface {
	AuthAttempt(operation, outcome string)
	ObserveHash(operation string, duration time.Duration)
	HashWaiting(delta int)
}

// TokenCodec signs and verifies session tokens
type TokenCodec interface {
	Generate(userID, identifier string) (string, time.Time, error)
	Validate(tokenString string) (*token.Claims, error)
}

// Session - результат успешного login или register
type Session struct {
	ExpiresAt time.Time
	Token     string
	User      api.UserSummary
}

// Response converts the session to its wire form
func (s *Session) Response() api.SessionResponse {
	return api.SessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      s.User,
	}
}

// Options настраивает Issuer
type Options struct {
	Recorder Recorder
	Logger   *slog.Logger
	// HashWorkers ограничивает число одновременных вызовов Hash/Compare.
	// 0 означает GOMAXPROCS.
	HashWorkers int
}

// Issuer validates credentials and issues session tokens.
// It holds no mutable state; uniqueness is enforced by the storage.
type Issuer struct {
	users     storage.UserStorage
	hasher    crypto.Hasher
	tokens    TokenCodec
	recorder  Recorder
	logger    *slog.Logger
	hashSlots *semaphore.Weighted
	now       func() time.Time
	decoyHash string
}

// NewIssuer создает Issuer. Хеш-приманка вычисляется один раз здесь.
func NewIssuer(users storage.UserStorage, hasher crypto.Hasher, tokens TokenCodec, opts Options) (*Issuer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	workers := opts.HashWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	decoyHash, err := hasher.Hash(decoySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to compute decoy hash: %w", err)
	}

	return &Issuer{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		recorder:  recorder,
		logger:    logger,
		hashSlots: semaphore.NewWeighted(int64(workers)),
		now:       time.Now,
		decoyHash: decoyHash,
	}, nil
}

// Login проверяет пару identifier/secret и выпускает токен.
// Неизвестный identifier и неверный пароль неразличимы для вызывающего.
func (i *Issuer) Login(ctx context.Context, identifier, secret string) (*Session, error) {
	if err := validation.Login(identifier, secret); err != nil {
		i.recorder.AuthAttempt(OperationLogin, metrics.OutcomeInvalidInput)
		return nil, err
	}

	user, err := i.users.GetUserByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		i.recorder.AuthAttempt(OperationLogin, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	storedHash := i.decoyHash
	if user != nil {
		storedHash = user.SecretHash
	}

	var matched bool
	if err := i.withHashSlot(ctx, "compare", func() {
		matched = i.hasher.Compare(secret, storedHash)
	}); err != nil {
		i.recorder.AuthAttempt(OperationLogin, metrics.OutcomeError)
		return nil, err
	}

	if user == nil || !matched {
		i.logger.WarnContext(ctx, "login failed: invalid credentials",
			slog.String("identifier", identifier))
		i.recorder.AuthAttempt(OperationLogin, metrics.OutcomeInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	sess, err := i.issue(user)
	if err != nil {
		i.recorder.AuthAttempt(OperationLogin, metrics.OutcomeError)
		return nil, err
	}

	if err := i.users.UpdateLastLogin(ctx, user.ID, i.now()); err != nil {
		// не критично, логируем но не прерываем
		i.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	i.logger.InfoContext(ctx, "user logged in",
		slog.String("identifier", user.Identifier),
		slog.String("user_id", user.ID))
	i.recorder.AuthAttempt(OperationLogin, metrics.OutcomeSuccess)

	return sess, nil
}

// Register создает учетную запись и сразу выпускает для нее токен
func (i *Issuer) Register(ctx context.Context, identifier, secret string) (*Session, error) {
	if err := validateCredentials(identifier, secret); err != nil {
		i.recorder.AuthAttempt(OperationRegister, metrics.OutcomeInvalidInput)
		return nil, err
	}

	var (
		secretHash string
		hashErr    error
	)
	if err := i.withHashSlot(ctx, "hash", func() {
		secretHash, hashErr = i.hasher.Hash(secret)
	}); err != nil {
		i.recorder.AuthAttempt(OperationRegister, metrics.OutcomeError)
		return nil, err
	}
	if hashErr != nil {
		i.recorder.AuthAttempt(OperationRegister, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to hash secret: %w", hashErr)
	}

	now := i.now()
	user := &models.User{
		ID:         uuid.New().String(),
		Identifier: identifier,
		SecretHash: secretHash,
		CreatedAt:  now,
		LastLogin:  &now,
	}

	if err := i.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			i.logger.WarnContext(ctx, "identifier already taken", slog.String("identifier", identifier))
			i.recorder.AuthAttempt(OperationRegister, metrics.OutcomeConflict)
			return nil, ErrIdentifierTaken
		}
		i.recorder.AuthAttempt(OperationRegister, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	sess, err := i.issue(user)
	if err != nil {
		i.recorder.AuthAttempt(OperationRegister, metrics.OutcomeError)
		return nil, err
	}

	i.logger.InfoContext(ctx, "user registered",
		slog.String("identifier", user.Identifier),
		slog.String("user_id", user.ID))
	i.recorder.AuthAttempt(OperationRegister, metrics.OutcomeSuccess)

	return sess, nil
}

// ResolveSession проверяет токен и возвращает его владельца.
// Токен удаленного пользователя считается недействительным.
func (i *Issuer) ResolveSession(ctx context.Context, tokenString string) (*api.UserSummary, error) {
	if tokenString == "" {
		i.recorder.AuthAttempt(OperationResolve, metrics.OutcomeUnauthorized)
		return nil, ErrUnauthorized
	}

	claims, err := i.tokens.Validate(tokenString)
	if err != nil {
		i.logger.DebugContext(ctx, "token rejected", slog.Any("error", err))
		i.recorder.AuthAttempt(OperationResolve, metrics.OutcomeUnauthorized)
		return nil, ErrUnauthorized
	}

	user, err := i.users.GetUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			i.logger.WarnContext(ctx, "token owner no longer exists", slog.String("user_id", claims.UserID()))
			i.recorder.AuthAttempt(OperationResolve, metrics.OutcomeUnauthorized)
			return nil, ErrUnauthorized
		}
		i.recorder.AuthAttempt(OperationResolve, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	summary := user.Summary()
	i.recorder.AuthAttempt(OperationResolve, metrics.OutcomeSuccess)

	return &summary, nil
}

func (i *Issuer) issue(user *models.User) (*Session, error) {
	signed, expiresAt, err := i.tokens.Generate(user.ID, user.Identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &Session{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user.Summary(),
	}, nil
}

// withHashSlot выполняет fn, удерживая слот семафора.
// Отмененный контекст освобождает место в очереди без вызова fn.
func (i *Issuer) withHashSlot(ctx context.Context, operation string, fn func()) error {
	i.recorder.HashWaiting(1)
	err := i.hashSlots.Acquire(ctx, 1)
	i.recorder.HashWaiting(-1)
	if err != nil {
		return fmt.Errorf("waiting for hash slot: %w", err)
	}
	defer i.hashSlots.Release(1)

	start := time.Now()
	fn()
	i.recorder.ObserveHash(operation, time.Since(start))

	return nil
}

func validateCredentials(identifier, secret string) error {
	return validation.Struct(api.CredentialsRequest{
		Identifier: identifier,
		Secret:     secret,
	})
}

type nopRecorder struct{}

func (nopRecorder) AuthAttempt(string, string)        {}
func (nopRecorder) ObserveHash(string, time.Duration) {}
func (nopRecorder) HashWaiting(int)                   {}
