// Package config собирает настройки сервера: значения по умолчанию,
// затем переменные окружения GAMELIB_*, затем флаги командной строки.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/gamelib/internal/crypto"
	"github.com/iudanet/gamelib/internal/validation"
)

// EnvPrefix - префикс переменных окружения сервера
const EnvPrefix = "GAMELIB_"

// Драйверы хранилища учетных записей
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds runtime settings for the gamelib server
type Config struct {
	CORS            CORSConfig    `json:"cors"`
	Log             LogConfig     `json:"log"`
	Storage         StorageConfig `json:"storage"`
	JWT             JWTConfig     `json:"jwt"`
	Hash            HashConfig    `json:"hash"`
	RateLimit       RateConfig    `json:"rate_limit"`
	ListenAddr      string        `json:"listen_addr" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"gt=0"`
}

// StorageConfig выбирает хранилище учетных записей
type StorageConfig struct {
	Driver string `json:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `json:"dsn" validate:"required"`
}

// JWTConfig настраивает подпись токенов сессии
type JWTConfig struct {
	Secret string        `json:"secret" validate:"required,min=32"`
	Issuer string        `json:"issuer" validate:"required"`
	TTL    time.Duration `json:"ttl" validate:"gt=0"`
}

// HashConfig настраивает хеширование паролей
type HashConfig struct {
	Algorithm     string `json:"algorithm" validate:"oneof=bcrypt argon2id"`
	Cost          int    `json:"cost" validate:"min=4,max=31"`
	Workers       int    `json:"workers" validate:"min=1"`
	Argon2Time    uint32 `json:"argon2_time" validate:"min=1"`
	Argon2Memory  uint32 `json:"argon2_memory" validate:"min=8192"`
	Argon2Threads uint8  `json:"argon2_threads" validate:"min=1"`
}

// RateConfig ограничивает частоту запросов к /auth/login и /auth/register с одного адреса
type RateConfig struct {
	Requests int           `json:"requests" validate:"min=0"`
	Window   time.Duration `json:"window" validate:"gt=0"`
}

// CORSConfig перечисляет разрешенные источники
type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

// LogConfig настраивает slog
type LogConfig struct {
	Level  string `json:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" validate:"oneof=json text"`
}

// HasherConfig converts hash settings for crypto.NewHasher
func (h HashConfig) HasherConfig() crypto.HashConfig {
	return crypto.HashConfig{
		Algorithm:     h.Algorithm,
		BcryptCost:    h.Cost,
		Argon2Time:    h.Argon2Time,
		Argon2Memory:  h.Argon2Memory,
		Argon2Threads: h.Argon2Threads,
	}
}

// Default returns development defaults.
// JWT.Secret is left empty and must be provided.
func Default() *Config {
	return &Config{
		ListenAddr:      ":8080",
		ShutdownTimeout: 10 * time.Second,
		Storage: StorageConfig{
			Driver: DriverSQLite,
			DSN:    "gamelib.db",
		},
		JWT: JWTConfig{
			Issuer: "gamelib",
			TTL:    24 * time.Hour,
		},
		Hash: HashConfig{
			Algorithm:     crypto.AlgorithmBcrypt,
			Cost:          crypto.DefaultBcryptCost,
			Workers:       runtime.GOMAXPROCS(0),
			Argon2Time:    crypto.DefaultArgon2Time,
			Argon2Memory:  crypto.DefaultArgon2Memory,
			Argon2Threads: crypto.DefaultArgon2Threads,
		},
		RateLimit: RateConfig{
			Requests: 20,
			Window:   time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// ErrHelp возвращается, когда запрошена справка (-h)
var ErrHelp = flag.ErrHelp

// Load builds a Config by applying defaults, then environment variables
// read through getenv, then args. The result is validated.
func Load(args []string, getenv func(string) string, output io.Writer) (*Config, error) {
	cfg := Default()

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.parseFlags(args, output); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет конфигурацию по тегам validate
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	var errs []error

	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(EnvPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v := getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	str("LISTEN_ADDR", &c.ListenAddr)
	dur("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_DSN", &c.Storage.DSN)
	str("JWT_SECRET", &c.JWT.Secret)
	str("JWT_ISSUER", &c.JWT.Issuer)
	dur("JWT_TTL", &c.JWT.TTL)
	str("HASH_ALGORITHM", &c.Hash.Algorithm)
	integer("HASH_COST", &c.Hash.Cost)
	integer("HASH_WORKERS", &c.Hash.Workers)
	integer("RATE_LIMIT_REQUESTS", &c.RateLimit.Requests)
	dur("RATE_LIMIT_WINDOW", &c.RateLimit.Window)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v := getenv(EnvPrefix + "CORS_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}

	return errors.Join(errs...)
}

func (c *Config) parseFlags(args []string, output io.Writer) error {
	fs := flag.NewFlagSet("gamelib-server", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&c.ListenAddr, "addr", c.ListenAddr, "HTTP listen address")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "graceful shutdown timeout")
	fs.StringVar(&c.Storage.Driver, "storage", c.Storage.Driver, "credential storage driver: sqlite or postgres")
	fs.StringVar(&c.Storage.DSN, "dsn", c.Storage.DSN, "storage DSN (SQLite file path or PostgreSQL URL)")
	fs.StringVar(&c.JWT.Secret, "jwt-secret", c.JWT.Secret, "HMAC secret for session tokens (at least 32 bytes)")
	fs.DurationVar(&c.JWT.TTL, "jwt-ttl", c.JWT.TTL, "session token lifetime")
	fs.StringVar(&c.Hash.Algorithm, "hash", c.Hash.Algorithm, "password hash algorithm: bcrypt or argon2id")
	fs.IntVar(&c.Hash.Cost, "hash-cost", c.Hash.Cost, "bcrypt cost")
	fs.IntVar(&c.Hash.Workers, "hash-workers", c.Hash.Workers, "maximum concurrent hash operations")
	fs.IntVar(&c.RateLimit.Requests, "rate-limit", c.RateLimit.Requests, "auth requests per window per address (0 disables)")
	fs.DurationVar(&c.RateLimit.Window, "rate-window", c.RateLimit.Window, "rate limit window")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level: debug, info, warn, error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log format: json or text")
	fs.Func("cors-origins", "comma separated list of allowed CORS origins", func(v string) error {
		c.CORS.AllowedOrigins = splitList(v)
		return nil
	})

	return fs.Parse(args)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
