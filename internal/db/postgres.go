package db

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/ignatzorin/koihire-backend/internal/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// NewPostgres создаёт подключение к PostgreSQL, повторяя попытки с экспоненциальной паузой,
// пока база поднимается вместе с приложением.
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 30 * time.Second

	var conn *sqlx.DB
	connect := func() error {
		c, err := sqlx.ConnectContext(ctx, "postgres", dsn)
		if err != nil {
			logger.Log.WithError(err).Warn("postgres: подключение не удалось, повторяем")
			return err
		}
		conn = c
		return nil
	}

	if err := backoff.Retry(connect, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("postgres: не удалось подключиться: %w", err)
	}

	conn.SetMaxOpenConns(100)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return conn, nil
}

// MigrationSource источник встроенных SQL миграций.
func MigrationSource() migrate.MigrationSource {
	return migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// Migrate применяет (up) или откатывает (down) миграции и возвращает их количество.
func Migrate(conn *sqlx.DB, direction migrate.MigrationDirection) (int, error) {
	n, err := migrate.Exec(conn.DB, "postgres", MigrationSource(), direction)
	if err != nil {
		return 0, fmt.Errorf("postgres: миграции: %w", err)
	}
	return n, nil
}
