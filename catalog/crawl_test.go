package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustWriteFile(t *testing.T, path string, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestCrawlInitialBuildsTree(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a", "one.txt"), "hello")
	mustWriteFile(t, filepath.Join(root, "b.txt"), "world")

	s := NewStore()
	c := NewCrawler(DefaultOptions())
	idx, err := c.CrawlInitial(s, []string{root})
	require.NoError(t, err)

	require.NoError(t, s.CheckInvariants())
	_, ok := idx[root]
	require.True(t, ok)
	_, ok = idx[filepath.Join(root, "a")]
	require.True(t, ok)
}

func TestCrawlAddIsIdempotent(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a", "one.txt"), "hello")
	mustWriteFile(t, filepath.Join(root, "b.txt"), "world")

	s := NewStore()
	c := NewCrawler(DefaultOptions())
	_, err := c.CrawlInitial(s, []string{root})
	require.NoError(t, err)
	lenAfterFirst := s.Len()

	require.NoError(t, c.CrawlAdd(s, root))
	require.Equal(t, lenAfterFirst, s.Len())

	require.NoError(t, c.CrawlAdd(s, root))
	require.Equal(t, lenAfterFirst, s.Len())
}

func TestCrawlAddPicksUpNewFile(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "one.txt"), "hello")

	s := NewStore()
	c := NewCrawler(DefaultOptions())
	_, err := c.CrawlInitial(s, []string{root})
	require.NoError(t, err)
	before := s.Len()

	mustWriteFile(t, filepath.Join(root, "two.txt"), "world")
	require.NoError(t, c.CrawlAdd(s, root))
	require.Equal(t, before+1, s.Len())
}

func TestCrawlInitialParallelHashingMatchesSerial(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a", "one.txt"), "hello")
	mustWriteFile(t, filepath.Join(root, "b.txt"), "world")
	mustWriteFile(t, filepath.Join(root, "c.txt"), "world")

	serialOpts := DefaultOptions()
	serialOpts.HashWorkers = 0
	sSerial := NewStore()
	_, err := NewCrawler(serialOpts).CrawlInitial(sSerial, []string{root})
	require.NoError(t, err)

	parallelOpts := DefaultOptions()
	parallelOpts.HashWorkers = 4
	sParallel := NewStore()
	_, err = NewCrawler(parallelOpts).CrawlInitial(sParallel, []string{root})
	require.NoError(t, err)

	require.Equal(t, sSerial.Len(), sParallel.Len())

	// The Path Index holds directories only, so files directly under root
	// are found through the directory-to-files map.
	filesUnderRoot := func(s *Store) map[string]*Node {
		idx, err := BuildPathIndex(s)
		require.NoError(t, err)
		rootAddr, ok := idx[root]
		require.True(t, ok)
		files, err := BuildDirToFiles(s)
		require.NoError(t, err)
		byName := make(map[string]*Node)
		for _, a := range files[rootAddr] {
			n, err := s.Node(a)
			require.NoError(t, err)
			byName[string(n.Name)] = n
		}
		return byName
	}
	parallelFiles := filesUnderRoot(sParallel)
	serialFiles := filesUnderRoot(sSerial)

	bNode, ok := parallelFiles["b.txt"]
	require.True(t, ok)
	cNode, ok := parallelFiles["c.txt"]
	require.True(t, ok)
	serialB, ok := serialFiles["b.txt"]
	require.True(t, ok)
	require.NotEqual(t, EmptyHash, bNode.Hash)
	require.Equal(t, bNode.Hash, cNode.Hash, "identical content must hash identically regardless of worker count")
	require.Equal(t, serialB.Hash, bNode.Hash, "parallel hashing must produce the serial hash")
}

func TestCrawlRootSplicing(t *testing.T) {
	base := t.TempDir()
	nested := filepath.Join(base, "x", "y", "z")
	mustWriteFile(t, filepath.Join(nested, "leaf.txt"), "data")

	s := NewStore()
	c := NewCrawler(DefaultOptions())
	idx, err := c.CrawlInitial(s, []string{nested})
	require.NoError(t, err)

	require.NoError(t, s.CheckInvariants())
	_, ok := idx[nested]
	require.True(t, ok)
	_, ok = idx[filepath.Join(base, "x")]
	require.True(t, ok)
	_, ok = idx[filepath.Join(base, "x", "y")]
	require.True(t, ok)
}
