package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(t.TempDir(), DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestOpen_AppliesAllMigrations(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	migrations, err := loadMigrations()
	require.NoError(t, err)

	applied, err := appliedVersions(ctx, database.Conn())
	require.NoError(t, err)
	require.Len(t, applied, len(migrations))

	_, err = database.Conn().ExecContext(ctx, "SELECT mr_id, body, target_id, updated_at FROM drafts LIMIT 0")
	require.NoError(t, err, "drafts table should exist")
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir, DefaultOpenOptions())
	require.NoError(t, err)
	_, err = first.Conn().Exec("INSERT INTO drafts (mr_id, body, updated_at) VALUES ('1', 'wip', 1)")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(dir, DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	var body string
	require.NoError(t, second.Conn().QueryRow("SELECT body FROM drafts WHERE mr_id = '1'").Scan(&body))
	assert.Equal(t, "wip", body)
}

func TestMigrateUp_Idempotent(t *testing.T) {
	database := openTestDB(t)
	assert.NoError(t, migrateUp(context.Background(), database.Conn(), database.log))
}

func TestMigrateDown(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	conn := database.Conn()

	require.NoError(t, MigrateDown(ctx, conn, 1))

	_, err := conn.ExecContext(ctx, "SELECT target_id FROM drafts LIMIT 0")
	require.Error(t, err, "target_id should be dropped")

	_, err = conn.ExecContext(ctx, "SELECT body FROM drafts LIMIT 0")
	require.NoError(t, err, "drafts table should survive")

	require.Error(t, MigrateDown(ctx, conn, 0))
	require.Error(t, MigrateDown(ctx, conn, 5))
}

func TestWithTx_RollsBack(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	err := database.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO drafts (mr_id, body, updated_at) VALUES ('9', 'x', 1)")
		require.NoError(t, err)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var n int
	require.NoError(t, database.Conn().QueryRow("SELECT COUNT(*) FROM drafts").Scan(&n))
	assert.Zero(t, n)
}

func TestLoadMigrations_Valid(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "versions should be contiguous")
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename      string
		wantVersion   int
		wantName      string
		wantDirection string
		wantErr       bool
	}{
		{"0001_drafts.up.sql", 1, "drafts", "up", false},
		{"0001_drafts.down.sql", 1, "drafts", "down", false},
		{"0100_big_version.down.sql", 100, "big_version", "down", false},
		{"bad.sql", 0, "", "", true},
		{"0001_drafts.sql", 0, "", "", true},
		{"0000_zero.up.sql", 0, "", "", true},
		{"abc_notnumber.up.sql", 0, "", "", true},
		{"0001_.up.sql", 0, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, direction, err := parseFilename(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantDirection, direction)
		})
	}
}
