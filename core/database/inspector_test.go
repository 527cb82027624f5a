package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE snapshot_entries (id INTEGER PRIMARY KEY, tenant TEXT NOT NULL, class TEXT NOT NULL, name TEXT)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "snapshot_entries")
	require.NoError(t, err)
	require.Len(t, columns, 4)

	colMap := make(map[string]ColumnInfo)
	for _, col := range columns {
		colMap[col.Field] = col
	}

	assert.Equal(t, "integer", colMap["id"].Type)
	assert.Equal(t, "text", colMap["tenant"].Type)
	assert.Equal(t, "NO", colMap["tenant"].Null)
	assert.Equal(t, "YES", colMap["name"].Null)

	// PRAGMA table_info returns an empty result for a missing table
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE snapshot_entries (id INTEGER PRIMARY KEY, tenant TEXT)").Error)

	missing, err := MissingColumns(db, "snapshot_entries", "tenant", "class", "Name")
	require.NoError(t, err)
	assert.Equal(t, []string{"class", "Name"}, missing)

	missing, err = MissingColumns(db, "non_existent", "tenant")
	require.NoError(t, err)
	assert.Equal(t, []string{"tenant"}, missing)
}
