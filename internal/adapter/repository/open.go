package repository

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-taskflow/pkg/config"
)

// Open connects the storage backend selected by STORAGE_DRIVER
func Open(cfg *config.Config, logger *zap.Logger) (repositories.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := database.NewPostgresDB(cfg, logger)
		if err != nil {
			return nil, err
		}

		// Run migrations only when explicitly enabled in config.
		// Production deployments should manage schema via sql-migrate.
		if cfg.Database.AutoMigrate {
			if cfg.IsProduction() {
				_ = database.CloseDB(db)
				return nil, fmt.Errorf("DB_AUTO_MIGRATE is enabled in production; manage schema with sql-migrate")
			}
			if _, err := database.AutoMigrate(db, logger); err != nil {
				_ = database.CloseDB(db)
				return nil, err
			}
		}
		return NewPostgresStore(db, logger, WithPollInterval(cfg.Sync.PollInterval)), nil

	case config.StorageDriverRedis:
		rdb, err := cache.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("redis connected", zap.String("addr", cfg.GetRedisAddr()))
		return NewRedisStore(rdb, logger), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
