// Package token выпускает и проверяет подписанные HS256 токены сессии.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer is written to the iss claim when Config.Issuer is empty
const DefaultIssuer = "gamelib"

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrUnrecognizedToken = errors.New("unrecognized token")
	ErrEmptySecret       = errors.New("token secret is empty")
)

// Claims представляет JWT claims сессии.
// Subject содержит ID пользователя.
type Claims struct {
	Identifier string `json:"identifier"`
	jwt.RegisteredClaims
}

// UserID returns the subject the token is bound to
func (c *Claims) UserID() string {
	return c.Subject
}

// Config содержит конфигурацию для подписи токенов
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Codec signs and verifies session tokens
type Codec struct {
	now    func() time.Time
	issuer string
	secret []byte
	ttl    time.Duration
}

// NewCodec создает Codec. Пустой секрет или неположительный TTL - ошибка конфигурации.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TTL)
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}

	return &Codec{
		secret: cfg.Secret,
		issuer: issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

// Generate создает новый токен для пользователя и возвращает момент его истечения
func (c *Codec) Generate(userID, identifier string) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.ttl)

	claims := Claims{
		Identifier: identifier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    c.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate проверяет подпись, алгоритм, издателя и срок действия токена
func (c *Codec) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	switch {
	case err == nil && parsed.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenInvalid
	default:
		return nil, ErrUnrecognizedToken
	}

	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
