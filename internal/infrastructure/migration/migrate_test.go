package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	t.Run("lists embedded migrations in order", func(t *testing.T) {
		fsys, _ := Source("")

		names, err := List(fsys)

		require.NoError(t, err)
		assert.Equal(t, []string{
			"000001_create_funnel_tables",
			"000002_seed_funnels",
		}, names)
	})

	t.Run("ignores down files and directories", func(t *testing.T) {
		fsys := fstest.MapFS{
			"000002_b.up.sql":   {Data: []byte("SELECT 1;")},
			"000002_b.down.sql": {Data: []byte("SELECT 1;")},
			"000001_a.up.sql":   {Data: []byte("SELECT 1;")},
			"nested/x.up.sql":   {Data: []byte("SELECT 1;")},
			"README.md":         {Data: []byte("notes")},
		}

		names, err := List(fsys)

		require.NoError(t, err)
		assert.Equal(t, []string{"000001_a", "000002_b"}, names)
	})

	t.Run("reads a directory on disk", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000003_extra.up.sql"), []byte("SELECT 1;"), 0o600))

		fsys, _ := Source(dir)
		names, err := List(fsys)

		require.NoError(t, err)
		assert.Equal(t, []string{"000003_extra"}, names)
	})

	t.Run("missing directory yields no migrations", func(t *testing.T) {
		fsys, _ := Source(filepath.Join(t.TempDir(), "missing"))

		names, err := List(fsys)

		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestOpenSource(t *testing.T) {
	src, err := openSource("")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}
