package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mwantia/updater/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrations.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMigrator(openTestDB(t))

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Migrate(ctx))

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.True(t, s.Applied, s.Description)
	}
}

func TestRollbackLastMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := NewMigrator(db)
	require.NoError(t, m.Migrate(ctx))

	require.NoError(t, m.Rollback(ctx))
	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[1].Applied)

	require.NoError(t, m.Rollback(ctx))
	assert.False(t, db.Migrator().HasTable(&models.Rom{}))

	assert.Error(t, m.Rollback(ctx))
}
