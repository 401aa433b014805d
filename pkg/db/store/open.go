package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	config "github.com/mwantia/updater/internal/config/server"
	"github.com/mwantia/updater/pkg/db/migrations"
)

// Open builds the store selected by cfg.Type and connects it.
func Open(ctx context.Context, cfg config.MetadataServerConfig) (MetadataStore, error) {
	var (
		s   MetadataStore
		err error
	)

	switch strings.ToLower(cfg.Type) {
	case "", "sqlite":
		s, err = NewSQLiteStore(SQLiteConfig{Path: cfg.SQLite.Path})
	case "postgres", "postgresql":
		s, err = NewPostgresStore(PostgresConfig{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		})
	default:
		return nil, fmt.Errorf("unknown metadata store type '%s'", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Connect(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect metadata store: %w", err)
	}
	return s, nil
}

// Migrator returns the versioned migrator of a gorm backed store.
func Migrator(s MetadataStore) (*migrations.Migrator, error) {
	g, ok := s.(interface{ DB() *gorm.DB })
	if !ok {
		return nil, fmt.Errorf("store %T does not support migrations", s)
	}
	return migrations.NewMigrator(g.DB()), nil
}
