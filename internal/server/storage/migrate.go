package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// MigrationsDir - каталог с миграциями внутри встроенной FS адаптера
const MigrationsDir = "migrations"

// Migrate применяет миграции из каталога MigrationsDir в migrations.
// Используется goose Provider, глобальное состояние goose не трогается,
// поэтому адаптеры разных диалектов можно открывать одновременно.
// Возвращает число примененных миграций.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, migrations fs.FS) (int, error) {
	fsys, err := fs.Sub(migrations, MigrationsDir)
	if err != nil {
		return 0, fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose up failed: %w", err)
	}

	return len(results), nil
}
