package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOptionsFileMissingReturnsBase(t *testing.T) {
	base := DefaultOptions()
	out, err := LoadOptionsFile(filepath.Join(t.TempDir(), "missing.toml"), base)
	require.NoError(t, err)
	require.Equal(t, base.ArchiveExtensions, out.ArchiveExtensions)
}

func TestLoadOptionsFileOverlaysValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
decompress_archives = true
archive_extensions = ["tar", "zip"]
exclude_names = [".git"]
hash_workers = 4
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	out, err := LoadOptionsFile(path, DefaultOptions())
	require.NoError(t, err)
	require.True(t, out.DecompressArchives)
	require.Equal(t, []string{"tar", "zip"}, out.ArchiveExtensions)
	require.Equal(t, []string{".git"}, out.ExcludeNames)
	require.Equal(t, 4, out.HashWorkers)
}

func TestOptionsExcludes(t *testing.T) {
	opts := DefaultOptions()
	require.True(t, opts.excludes(".git"))
	require.True(t, opts.excludes("vendor"))
	require.False(t, opts.excludes("src"))
}
