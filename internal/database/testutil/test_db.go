package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/resumex/internal/database"
)

// Option tweaks the database opened by OpenDB.
type Option func(*database.Config, *bool)

// Migrated applies the user and analysis schema after opening.
func Migrated() Option {
	return func(_ *database.Config, migrate *bool) { *migrate = true }
}

// OnDisk backs the database with a WAL file under t.TempDir instead of memory.
func OnDisk(t *testing.T) Option {
	dir := t.TempDir()
	return func(cfg *database.Config, _ *bool) {
		cfg.Path = filepath.Join(dir, "resumex.sqlite")
	}
}

// OpenDB opens a private SQLite database that is closed when the test ends.
func OpenDB(t *testing.T, opts ...Option) *gorm.DB {
	t.Helper()

	cfg := database.Config{Driver: "sqlite"}
	migrate := false
	for _, opt := range opts {
		opt(&cfg, &migrate)
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	if migrate {
		require.NoError(t, database.AutoMigrate(db))
	}
	return db
}
