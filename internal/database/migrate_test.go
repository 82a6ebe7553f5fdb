package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_Paired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrationsFS_LedgerTables(t *testing.T) {
	raw, err := fs.ReadFile(migrationsFS, "migrations/000001_create_ledger.up.sql")
	require.NoError(t, err)

	schema := string(raw)
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS categories")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS transactions")
	assert.Contains(t, schema, "PRIMARY KEY (chat_id, id)")
}
