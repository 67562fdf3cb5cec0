// Package migrations применяет SQL-миграции схемы через golang-migrate.
package migrations

import (
	"errors"
	"fmt"

	"quizbot/internal/config"
	"quizbot/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Run поднимает схему до последней версии.
// Для sqlite миграции не нужны: схему создаёт AutoMigrate в database.New.
func Run(cfg *config.Cfg, log *logger.Zap) error {
	if cfg.Database.Driver != "postgres" {
		log.Info("Миграции пропущены", zap.String("driver", cfg.Database.Driver))
		return nil
	}

	m, err := migrate.New(cfg.Migrations.Path, cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("инициализация migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("чтение версии схемы: %w", err)
	}
	log.Info("Миграции применены", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
