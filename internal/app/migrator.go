package app

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/Freeeeeet/slotswap_bot/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator применяет встроенные миграции через goose
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
	logger   *zap.Logger
}

// NewMigrator создаёт мигратор поверх пула; миграции берутся из embed FS
func NewMigrator(pool *pgxpool.Pool, logger *zap.Logger) (*Migrator, error) {
	// Goose работает с *sql.DB, поэтому создаём его из пула
	db := stdlib.OpenDBFromPool(pool)

	return newMigrator(db, migrations.FS, logger)
}

func newMigrator(db *sql.DB, fsys fs.FS, logger *zap.Logger) (*Migrator, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create goose provider: %w", err)
	}

	return &Migrator{db: db, provider: provider, logger: logger}, nil
}

// Run применяет все pending миграции
func (mg *Migrator) Run(ctx context.Context) error {
	mg.logger.Info("Applying database migrations")

	results, err := mg.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, r := range results {
		mg.logger.Info("Migration applied",
			zap.String("source", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}

	version, err := mg.Version(ctx)
	if err != nil {
		return err
	}
	mg.logger.Info("Migrations applied successfully", zap.Int64("version", version))
	return nil
}

// Version показывает текущую версию схемы
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := mg.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close закрывает sql.DB мигратора, пул остаётся открытым
func (mg *Migrator) Close() error {
	return mg.db.Close()
}
