package catalog

import (
	"path/filepath"

	"github.com/pkg/errors"
)

// Mover abstracts the filesystem-mutation collaborator that physically
// relocates a directory on disk. Move itself does not call it; the caller
// performs the physical move after Move has reparented the node.
type Mover interface {
	MoveItem(from, to string) error
}

// Move reparents the directory node at fromDir so it becomes a child of
// toDir, in s only; it touches neither the filesystem nor idx. Both fromDir
// and toDir must already name directory nodes in s, and idx must not
// already hold a directory under toDir named like fromDir's base name
// (file entries under toDir are not checked).
func Move(s *Store, idx PathIndex, fromDir, toDir string) error {
	fromDir = filepath.Clean(fromDir)
	toDir = filepath.Clean(toDir)

	fromAddr, ok := idx[fromDir]
	if !ok {
		return errors.Errorf("source directory %q is not in the catalog", fromDir)
	}
	toAddr, ok := idx[toDir]
	if !ok {
		return errors.Errorf("target directory %q is not in the catalog", toDir)
	}
	if !s.nodes[fromAddr].IsDir || !s.nodes[toAddr].IsDir {
		return errors.New("mv only supports directory sources and targets")
	}

	targetPath := filepath.Join(toDir, filepath.Base(fromDir))
	if _, exists := idx[targetPath]; exists {
		return errors.Errorf("target %q already exists in the catalog", targetPath)
	}

	s.nodes[fromAddr].Parent = toAddr
	return nil
}
