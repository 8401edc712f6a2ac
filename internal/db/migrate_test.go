package db

import (
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMigrationTestDB opens a database without running migrations.
func setupMigrationTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func embeddedMigrations(t *testing.T) fs.FS {
	t.Helper()
	fsys, err := getMigrationsFS()
	require.NoError(t, err)
	return fsys
}

func TestEmbeddedMigrationsFS(t *testing.T) {
	fsys := embeddedMigrations(t)
	ups, err := fs.Glob(fsys, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(fsys, "*.down.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, ups)
	assert.Equal(t, len(ups), len(downs), "every migration has a down")
}

func TestMigrateUpDown(t *testing.T) {
	db := setupMigrationTestDB(t)
	fsys := embeddedMigrations(t)

	latest, err := GetLatestMigrationVersion(fsys)
	require.NoError(t, err)

	version, dirty, err := db.MigrateVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateUp(fsys))
	require.NoError(t, db.MigrateUp(fsys), "second run is a no-op")
	version, _, err = db.MigrateVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, latest, version)

	require.NoError(t, db.MigrateDown(fsys))
	version, _, err = db.MigrateVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, latest-1, version)

	require.NoError(t, db.MigrateTo(fsys, latest))
	version, _, err = db.MigrateVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, latest, version)
}

func TestCheckMigrations(t *testing.T) {
	db := setupMigrationTestDB(t)
	fsys := embeddedMigrations(t)

	err := db.CheckMigrations(fsys)
	assert.ErrorIs(t, err, ErrSchemaOutOfDate)

	st, err := db.GetMigrationStatus(fsys)
	require.NoError(t, err)
	assert.Equal(t, st.LatestVersion, st.Pending)
	assert.Contains(t, FormatMigrationStatus(st), "pending")

	require.NoError(t, db.MigrateUp(fsys))
	assert.NoError(t, db.CheckMigrations(fsys))

	st, err = db.GetMigrationStatus(fsys)
	require.NoError(t, err)
	assert.Contains(t, FormatMigrationStatus(st), "up to date")

	require.NoError(t, db.MigrateForce(fsys, int(st.LatestVersion)+1))
	assert.Error(t, db.CheckMigrations(fsys), "ahead of the known migrations")
}

func TestNewDBWithMigrationCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "check.db")

	_, err := NewDBWithMigrationCheck(path, true)
	assert.ErrorIs(t, err, ErrSchemaOutOfDate)

	db, err := NewDBWithMigrationCheck(path, false)
	require.NoError(t, err)
	db.Close()

	db, err = NewDBWithMigrationCheck(path, true)
	require.NoError(t, err)
	db.Close()
}

func TestGetLatestMigrationVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"000001_a.up.sql":   {Data: []byte("SELECT 1;")},
		"000001_a.down.sql": {Data: []byte("SELECT 1;")},
		"000007_b.up.sql":   {Data: []byte("SELECT 1;")},
	}
	v, err := GetLatestMigrationVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, uint(7), v)

	_, err = GetLatestMigrationVersion(fstest.MapFS{})
	assert.Error(t, err)
}
