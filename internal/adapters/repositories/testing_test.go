package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"waste-route-service/internal/platform/db"
)

// newTestDB opens a migrated sqlite database in a temp dir. A file is used
// rather than :memory: so every pooled connection sees the same data.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, InitSchema(context.Background(), conn, SQLite))
	return conn
}
