package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func crawlFreshTree(t *testing.T, root string) (*Store, PathIndex) {
	t.Helper()
	s := NewStore()
	c := NewCrawler(DefaultOptions())
	idx, err := c.CrawlInitial(s, []string{root})
	require.NoError(t, err)
	return s, idx
}

func TestPruneNoopOnUnchangedTree(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a", "one.txt"), "hello")
	mustWriteFile(t, filepath.Join(root, "b.txt"), "world")

	s, _ := crawlFreshTree(t, root)
	before := s.Len()

	result, err := Prune(s)
	require.NoError(t, err)
	require.Equal(t, 0, result.Deleted)
	require.Equal(t, before, result.After)
	require.NoError(t, s.CheckInvariants())
}

func TestPruneDropsDeletedFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "gone.txt")
	mustWriteFile(t, target, "bye")

	s, _ := crawlFreshTree(t, root)
	require.NoError(t, os.Remove(target))

	result, err := Prune(s)
	require.NoError(t, err)
	require.Equal(t, 1, result.Deleted)
	require.NoError(t, s.CheckInvariants())
}

func TestPruneDropsChangedFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "changed.txt")
	mustWriteFile(t, target, "original")

	s, _ := crawlFreshTree(t, root)

	time.Sleep(1100 * time.Millisecond)
	mustWriteFile(t, target, "a longer replacement body")

	result, err := Prune(s)
	require.NoError(t, err)
	require.Equal(t, 1, result.Deleted)
}

func TestPruneRejectsDirectoryTypeChange(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "flips")
	mustWriteFile(t, filepath.Join(target, "inner.txt"), "x")

	s, _ := crawlFreshTree(t, root)

	require.NoError(t, os.RemoveAll(target))
	mustWriteFile(t, target, "now a file")

	_, err := Prune(s)
	require.Error(t, err)
}
