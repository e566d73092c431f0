package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/taskdesk/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
	require.NoError(t, Ping(context.Background(), db))
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "taskdesk.db")

	db, err := Open(Config{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Ping(context.Background(), db))
	require.FileExists(t, path)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestOpenPostgresRequiresCredentials(t *testing.T) {
	_, err := Open(Config{Driver: "postgres"})
	require.Error(t, err)
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	tables := []interface{}{
		&models.User{},
		&models.Category{},
		&models.Task{},
		&models.CacheEntry{},
	}
	for _, table := range tables {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
	require.True(t, migrator.HasColumn(&models.User{}, "refresh_token_hash"))
}

func TestAutoMigrateRejectsNilHandle(t *testing.T) {
	require.Error(t, AutoMigrate(nil))
}

func TestTaskForeignKeyEnforced(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	err := db.Create(&models.Task{Name: "orphan", CategoryID: "missing", Price: 1}).Error
	require.Error(t, err)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
