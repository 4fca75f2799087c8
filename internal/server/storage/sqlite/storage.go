package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/gamelib/internal/server/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// pragmas применяются к единственному соединению пула.
// WAL позволяет читать во время записи, busy_timeout сглаживает конкурентные регистрации.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// Storage хранит учетные записи в SQLite.
// Уникальность identifier без учета регистра обеспечивает COLLATE NOCASE UNIQUE.
type Storage struct {
	db *sql.DB
}

var (
	_ storage.UserStorage = (*Storage)(nil)
	_ storage.Pinger      = (*Storage)(nil)
)

// New открывает базу по пути dbPath и применяет миграции.
// ":memory:" дает базу в памяти для тестов.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// один писатель; для ":memory:" еще и одна общая база
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

func prepare(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := storage.Migrate(ctx, db, goose.DialectSQLite3, migrations); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close закрывает базу
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping проверяет доступность базы (health check)
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
