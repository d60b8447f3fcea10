package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMoveReparentsDirectory(t *testing.T) {
	s := NewStore()
	root, err := s.Append(Node{Name: []byte("/"), IsDir: true, Parent: Sentinel})
	require.NoError(t, err)
	src, err := s.Append(Node{Name: []byte("src"), IsDir: true, Parent: root})
	require.NoError(t, err)
	dst, err := s.Append(Node{Name: []byte("dst"), IsDir: true, Parent: root})
	require.NoError(t, err)

	idx := PathIndex{"/": root, "/src": src, "/dst": dst}

	require.NoError(t, Move(s, idx, "/src", "/dst"))

	n, err := s.Node(src)
	require.NoError(t, err)
	require.Equal(t, dst, n.Parent)
}

func TestMoveRefusesUnknownSource(t *testing.T) {
	s := NewStore()
	root, err := s.Append(Node{Name: []byte("/"), IsDir: true, Parent: Sentinel})
	require.NoError(t, err)
	idx := PathIndex{"/": root}

	require.Error(t, Move(s, idx, "/missing", "/"))
}

func TestMoveRefusesClobber(t *testing.T) {
	s := NewStore()
	root, err := s.Append(Node{Name: []byte("/"), IsDir: true, Parent: Sentinel})
	require.NoError(t, err)
	src, err := s.Append(Node{Name: []byte("src"), IsDir: true, Parent: root})
	require.NoError(t, err)
	dst, err := s.Append(Node{Name: []byte("dst"), IsDir: true, Parent: root})
	require.NoError(t, err)
	existing, err := s.Append(Node{Name: []byte("src"), IsDir: true, Parent: dst})
	require.NoError(t, err)

	idx := PathIndex{"/": root, "/src": src, "/dst": dst, "/dst/src": existing}

	require.Error(t, Move(s, idx, "/src", "/dst"))
}
