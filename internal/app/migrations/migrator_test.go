package migrations

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "001", Version("001_roster.sql"))
	assert.Equal(t, "010", Version("sql/010_add_index.sql"))
	assert.Equal(t, "noprefix.sql", Version("noprefix.sql"))
}

func TestSortedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":  {Data: []byte("SELECT 1;")},
		"002_users.sql":  {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("notes")},
		"001_roster.sql": {Data: []byte("SELECT 1;")},
	}

	files, err := SortedFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_roster.sql", "002_users.sql", "010_later.sql"}, files)
}

func TestBundledMigrations(t *testing.T) {
	files, err := SortedFiles(Files())
	require.NoError(t, err)
	assert.Equal(t, []string{"001_roster.sql", "002_users.sql", "003_attachments.sql"}, files)

	schema, err := fs.ReadFile(Files(), "001_roster.sql")
	require.NoError(t, err)
	assert.Contains(t, string(schema), "students_registration_no_key")
}
