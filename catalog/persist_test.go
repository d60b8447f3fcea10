package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeGarbage(path string) error {
	return os.WriteFile(path, []byte("not a catalog file"), 0o644)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := buildSimpleTree(t)
	require.NoError(t, PropagateSizes(s))

	path := filepath.Join(t.TempDir(), "catalog.db")
	require.NoError(t, Save(path, s))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, s.Len(), loaded.Len())

	for addr := 0; addr < s.Len(); addr++ {
		want, err := s.Node(Address(addr))
		require.NoError(t, err)
		got, err := loaded.Node(Address(addr))
		require.NoError(t, err)
		require.Equal(t, want.Name, got.Name)
		require.Equal(t, want.IsDir, got.IsDir)
		require.Equal(t, want.Parent, got.Parent)
		require.Equal(t, want.Size, got.Size)
		require.Equal(t, want.Hash, got.Hash)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.db")
	require.NoError(t, writeGarbage(path))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsCorruptInvariants(t *testing.T) {
	s := NewStore()
	root, _ := s.Append(Node{Name: []byte("/"), IsDir: true, Parent: Sentinel})
	child, _ := s.Append(Node{Name: []byte("x"), IsDir: false, Parent: root})
	// Point child's parent at itself to violate invariant 2 before saving.
	n, err := s.Node(child)
	require.NoError(t, err)
	n.Parent = child

	path := filepath.Join(t.TempDir(), "corrupt.db")
	require.NoError(t, Save(path, s))

	_, err = Load(path)
	require.Error(t, err)
}
