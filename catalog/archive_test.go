package catalog

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsArchiveRecognizesConfiguredExtensions(t *testing.T) {
	opts := DefaultOptions()
	opts.DecompressArchives = true

	require.True(t, IsArchive("/x/backup.tar", opts))
	require.True(t, IsArchive("/x/backup.tgz", opts))
	require.True(t, IsArchive("/x/backup.gz", opts))
	require.False(t, IsArchive("/x/backup.zip", opts), "zip is opt-in only, never auto-detected")
	require.False(t, IsArchive("/x/backup.txt", opts))
}

func TestIsArchiveDisabledByOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.DecompressArchives = false
	require.False(t, IsArchive("/x/backup.tar", opts))
}

func TestDecompressTarExtractsFiles(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bundle.tar")
	f, err := os.Create(src)
	require.NoError(t, err)

	tw := tar.NewWriter(f)
	contents := []byte("payload")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "inner.txt",
		Mode: 0o644,
		Size: int64(len(contents)),
	}))
	_, err = tw.Write(contents)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())

	dst := t.TempDir()
	require.NoError(t, decompressArchive(src, dst))

	got, err := os.ReadFile(filepath.Join(dst, "inner.txt"))
	require.NoError(t, err)
	require.Equal(t, contents, got)
}
