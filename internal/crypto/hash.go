package crypto

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Алгоритмы хеширования паролей
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// DefaultBcryptCost - work factor bcrypt по умолчанию (2^10 раундов)
const DefaultBcryptCost = 10

// ErrEmptySecret возвращается при попытке захешировать пустой пароль
var ErrEmptySecret = errors.New("secret cannot be empty")

// Hasher - одностороннее хеширование и проверка паролей.
// Реализации не имеют состояния и не выполняют I/O.
type Hasher interface {
	// Hash возвращает соленый хеш пароля. Два вызова с одним паролем дают разные хеши.
	Hash(secret string) (string, error)

	// Compare возвращает true, если secret был входом для hash.
	// Для поврежденного hash возвращает false.
	Compare(secret, hash string) bool
}

// HashConfig содержит параметры хеширования
type HashConfig struct {
	Algorithm     string
	BcryptCost    int
	Argon2Time    uint32
	Argon2Memory  uint32
	Argon2Threads uint8
}

// DefaultHashConfig возвращает bcrypt с cost 10
func DefaultHashConfig() HashConfig {
	return HashConfig{
		Algorithm:     AlgorithmBcrypt,
		BcryptCost:    DefaultBcryptCost,
		Argon2Time:    DefaultArgon2Time,
		Argon2Memory:  DefaultArgon2Memory,
		Argon2Threads: DefaultArgon2Threads,
	}
}

// NewHasher создает Hasher по конфигурации.
// Новые хеши создаются выбранным алгоритмом, проверка работает для обоих,
// поэтому смена алгоритма не ломает существующие учетные записи.
func NewHasher(cfg HashConfig) (*MultiHasher, error) {
	bcryptHasher, err := NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	argonHasher, err := NewArgon2Hasher(cfg.Argon2Time, cfg.Argon2Memory, cfg.Argon2Threads)
	if err != nil {
		return nil, err
	}

	m := &MultiHasher{bcrypt: bcryptHasher, argon2: argonHasher}
	switch cfg.Algorithm {
	case AlgorithmBcrypt, "":
		m.primary = bcryptHasher
	case AlgorithmArgon2id:
		m.primary = argonHasher
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", cfg.Algorithm)
	}
	return m, nil
}

// MultiHasher хеширует основным алгоритмом и проверяет хеши любого поддерживаемого
type MultiHasher struct {
	primary Hasher
	bcrypt  *BcryptHasher
	argon2  *Argon2Hasher
}

// Compile-time check that MultiHasher implements Hasher
var _ Hasher = (*MultiHasher)(nil)

// Hash хеширует основным алгоритмом
func (m *MultiHasher) Hash(secret string) (string, error) {
	return m.primary.Hash(secret)
}

// Compare выбирает алгоритм по префиксу хеша
func (m *MultiHasher) Compare(secret, hash string) bool {
	if strings.HasPrefix(hash, argon2Prefix) {
		return m.argon2.Compare(secret, hash)
	}
	return m.bcrypt.Compare(secret, hash)
}

// BcryptHasher реализует Hasher поверх golang.org/x/crypto/bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher создает bcrypt hasher; cost 0 означает DefaultBcryptCost
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash возвращает bcrypt хеш пароля
func (h *BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}

	return string(hash), nil
}

// Compare проверяет пароль; сравнение внутри bcrypt выполняется за постоянное время
func (h *BcryptHasher) Compare(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
