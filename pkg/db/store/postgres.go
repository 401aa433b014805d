package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresStore implements MetadataStore on a PostgreSQL server.
type PostgresStore struct {
	*gormStore
	maxOpenConns int
}

type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 20
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	return &PostgresStore{
		gormStore:    &gormStore{db: db},
		maxOpenConns: cfg.MaxOpenConns,
	}, nil
}

func (s *PostgresStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(s.maxOpenConns)
	sqlDB.SetConnMaxLifetime(60 * time.Minute)

	return sqlDB.PingContext(ctx)
}
