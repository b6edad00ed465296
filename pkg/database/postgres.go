package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"go-minimart-pos/internal/config"
	"go-minimart-pos/internal/logger"
)

// ConnectDB opens the Postgres pool described by cfg
func ConnectDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector := postgres.New(postgres.Config{
		DSN:                  cfg.Database.DSN(cfg.App.Timezone),
		PreferSimpleProtocol: true, // pgbouncer transaction mode
	})
	return Open(dialector, cfg.Database, log)
}

// Open wires the zap-backed gorm logger and pool limits onto any dialector
func Open(dialector gorm.Dialector, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      logger.NewGormLogger(log, logger.GormLevel(cfg.LogLevel)),
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Info("database connection established")
	return db, nil
}
