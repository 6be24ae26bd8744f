package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresFiles_Embedded(t *testing.T) {
	files, err := PostgresFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_blacklist_entries.sql", files[0])

	data, err := fs.ReadFile(PostgresFS, "postgres/"+files[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS blacklist_entries"))
}
