package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"gaokao/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open подключается к Postgres и настраивает пул.
func Open(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Проверяем подключение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	zap.L().Info("database connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.Name))
	return db, nil
}

func Close(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		zap.L().Warn("close db failed", zap.Error(err))
		return
	}
	zap.L().Info("database connection closed")
}

// Migrate накатывает встроенные миграции. Версия схемы хранится в schema_migrations.
func Migrate(db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrate version: %w", err)
	}
	zap.L().Info("schema is up to date", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Ключи advisory-локов
const (
	ImportLockKey int64 = 20250601
)

// WithAdvisoryLock держит pg_advisory_lock(key) на отдельном соединении, пока выполняется fn.
// Второй процесс будет ждать, пока первый не закончит.
func WithAdvisoryLock(ctx context.Context, db *sqlx.DB, key int64, fn func(ctx context.Context) error) error {
	conn, err := db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("lock conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, key); err != nil {
		return fmt.Errorf("acquire advisory lock %d: %w", key, err)
	}
	defer func() {
		// ctx может быть уже отменён, снимаем лок в любом случае
		if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, key); err != nil {
			zap.L().Warn("release advisory lock failed", zap.Int64("key", key), zap.Error(err))
		}
	}()

	return fn(ctx)
}
