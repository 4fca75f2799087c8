package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id по умолчанию
const (
	// DefaultArgon2Time - количество итераций (time cost)
	DefaultArgon2Time = 1
	// DefaultArgon2Memory - объем памяти в KB (64MB = 64*1024 KB)
	DefaultArgon2Memory = 64 * 1024
	// DefaultArgon2Threads - количество параллельных потоков
	DefaultArgon2Threads = 4
	// Argon2KeyLen - длина выходного ключа в байтах
	Argon2KeyLen = 32
	// SaltSize - размер соли в байтах
	SaltSize = 16
)

const argon2Prefix = "$argon2id$"

// Argon2Hasher реализует Hasher поверх Argon2id.
// Хеш кодируется в PHC формате: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
type Argon2Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
}

// NewArgon2Hasher создает Argon2id hasher; нулевые параметры заменяются значениями по умолчанию
func NewArgon2Hasher(time, memory uint32, threads uint8) (*Argon2Hasher, error) {
	if time == 0 {
		time = DefaultArgon2Time
	}
	if memory == 0 {
		memory = DefaultArgon2Memory
	}
	if threads == 0 {
		threads = DefaultArgon2Threads
	}
	if memory < 8*uint32(threads) {
		return nil, fmt.Errorf("argon2 memory must be at least %d KB for %d threads", 8*uint32(threads), threads)
	}
	return &Argon2Hasher{time: time, memory: memory, threads: threads}, nil
}

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// Hash возвращает PHC-кодированный Argon2id хеш
func (h *Argon2Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(secret), salt, h.time, h.memory, h.threads, Argon2KeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Compare пересчитывает ключ с параметрами из хеша и сравнивает за постоянное время
func (h *Argon2Hasher) Compare(secret, hash string) bool {
	if secret == "" {
		return false
	}

	params, salt, key, err := decodeArgon2(hash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(secret), salt, params.time, params.memory, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1
}

// decodeArgon2 разбирает PHC строку
func decodeArgon2(hash string) (*Argon2Hasher, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, fmt.Errorf("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid argon2id version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("unsupported argon2id version %d", version)
	}

	params := &Argon2Hasher{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid argon2id parameters: %w", err)
	}
	if params.time == 0 || params.threads == 0 || params.memory == 0 {
		return nil, nil, nil, fmt.Errorf("invalid argon2id parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, nil, fmt.Errorf("failed to decode key")
	}

	return params, salt, key, nil
}
