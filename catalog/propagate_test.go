package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPropagateSizesSumsChildren(t *testing.T) {
	s := buildSimpleTree(t)
	require.NoError(t, PropagateSizes(s))

	root, err := s.Node(0)
	require.NoError(t, err)
	require.Equal(t, uint64(30), root.Size)

	a, err := s.Node(1)
	require.NoError(t, err)
	require.Equal(t, uint64(20), a.Size)
}

func TestPropagateSizesIdempotent(t *testing.T) {
	s := buildSimpleTree(t)
	require.NoError(t, PropagateSizes(s))
	root, err := s.Node(0)
	require.NoError(t, err)
	first := root.Size

	require.NoError(t, PropagateSizes(s))
	require.Equal(t, first, root.Size)
}

func TestPropagateSizesEmptyStore(t *testing.T) {
	s := NewStore()
	require.NoError(t, PropagateSizes(s))
}

func TestPropagateHashesDeriveFromChildren(t *testing.T) {
	s := buildSimpleTree(t)
	bAddr, cAddr := Address(2), Address(3)
	bNode, err := s.Node(bAddr)
	require.NoError(t, err)
	bNode.Hash = [32]byte{1}
	cNode, err := s.Node(cAddr)
	require.NoError(t, err)
	cNode.Hash = [32]byte{2}

	require.NoError(t, PropagateHashes(s))

	a, err := s.Node(1)
	require.NoError(t, err)
	require.NotEqual(t, EmptyHash, a.Hash)

	want := HashChildren([][]byte{cNode.Name}, [][32]byte{cNode.Hash})
	require.Equal(t, want, a.Hash)

	root, err := s.Node(0)
	require.NoError(t, err)
	require.NotEqual(t, EmptyHash, root.Hash)
}

func TestPropagateHashesEquivalentAcrossChildOrder(t *testing.T) {
	s1 := NewStore()
	root1, _ := s1.Append(Node{Name: []byte("/"), IsDir: true, Parent: Sentinel})
	f1, _ := s1.Append(Node{Name: []byte("one"), Parent: root1, Hash: [32]byte{1}})
	f2, _ := s1.Append(Node{Name: []byte("two"), Parent: root1, Hash: [32]byte{2}})
	_ = f1
	_ = f2
	require.NoError(t, PropagateHashes(s1))
	h1, err := s1.Node(root1)
	require.NoError(t, err)

	s2 := NewStore()
	root2, _ := s2.Append(Node{Name: []byte("/"), IsDir: true, Parent: Sentinel})
	_, _ = s2.Append(Node{Name: []byte("two"), Parent: root2, Hash: [32]byte{2}})
	_, _ = s2.Append(Node{Name: []byte("one"), Parent: root2, Hash: [32]byte{1}})
	require.NoError(t, PropagateHashes(s2))
	h2, err := s2.Node(root2)
	require.NoError(t, err)

	require.Equal(t, h1.Hash, h2.Hash)
}
