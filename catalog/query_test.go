package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildDedupTree(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	root, err := s.Append(Node{Name: []byte("/"), IsDir: true, Parent: Sentinel})
	require.NoError(t, err)

	dirA, err := s.Append(Node{Name: []byte("a"), IsDir: true, Parent: root})
	require.NoError(t, err)
	dirB, err := s.Append(Node{Name: []byte("b"), IsDir: true, Parent: root})
	require.NoError(t, err)

	_, err = s.Append(Node{Name: []byte("dup.txt"), Parent: dirA, Size: 100, Hash: [32]byte{9}})
	require.NoError(t, err)
	_, err = s.Append(Node{Name: []byte("dup.txt"), Parent: dirB, Size: 100, Hash: [32]byte{9}})
	require.NoError(t, err)
	_, err = s.Append(Node{Name: []byte("unique.txt"), Parent: dirA, Size: 50, Hash: [32]byte{7}})
	require.NoError(t, err)

	require.NoError(t, PropagateSizes(s))
	require.NoError(t, PropagateHashes(s))
	return s
}

func TestDedupGroupsByHashAndSize(t *testing.T) {
	s := buildDedupTree(t)
	groups, err := Dedup(s)
	require.NoError(t, err)

	require.NotEmpty(t, groups)
	top := groups[0]
	require.Equal(t, uint64(100), top.Size)
	require.Len(t, top.Paths, 2)
	require.Equal(t, uint64(100), top.BytesSaved)
}

func TestDedupRejectsUnpropagatedStore(t *testing.T) {
	s := NewStore()
	root, err := s.Append(Node{Name: []byte("/"), IsDir: true, Parent: Sentinel})
	require.NoError(t, err)
	_, err = s.Append(Node{Name: []byte("x.txt"), Parent: root, Size: 1})
	require.NoError(t, err)

	_, err = Dedup(s)
	require.Error(t, err)
}

func TestAllFilesElsewhereFindsCoverage(t *testing.T) {
	s := NewStore()
	root, err := s.Append(Node{Name: []byte("/"), IsDir: true, Parent: Sentinel})
	require.NoError(t, err)
	target, err := s.Append(Node{Name: []byte("target"), IsDir: true, Parent: root})
	require.NoError(t, err)
	backup, err := s.Append(Node{Name: []byte("backup"), IsDir: true, Parent: root})
	require.NoError(t, err)

	_, err = s.Append(Node{Name: []byte("covered.txt"), Parent: target, Size: 10, Hash: [32]byte{1}})
	require.NoError(t, err)
	_, err = s.Append(Node{Name: []byte("missing.txt"), Parent: target, Size: 20, Hash: [32]byte{2}})
	require.NoError(t, err)
	_, err = s.Append(Node{Name: []byte("covered.txt"), Parent: backup, Size: 10, Hash: [32]byte{1}})
	require.NoError(t, err)

	report, err := AllFilesElsewhere(s, "/target", nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.NumDupes)
	require.Equal(t, 1, report.NumMissing)
	require.Equal(t, []string{"/target/missing.txt"}, report.MissingPaths)
}

func TestComputeStatsCountsAndLargest(t *testing.T) {
	s := buildDedupTree(t)
	st, err := ComputeStats(s, "")
	require.NoError(t, err)
	require.Equal(t, 3, st.NumFiles)
	require.Equal(t, 3, st.NumDirs)
	// Sizes are propagated, so the root's subtree size (150+100) is the
	// largest single entry in the store.
	require.Equal(t, uint64(250), st.LargestEntrySize)
}

func TestComputeStatsPrefixRestrictsCounts(t *testing.T) {
	s := buildDedupTree(t)
	st, err := ComputeStats(s, "/a")
	require.NoError(t, err)
	require.Equal(t, 2, st.NumFiles)
	// Largest-entry figure is over the whole store, not the prefix.
	require.Equal(t, uint64(250), st.LargestEntrySize)
}
