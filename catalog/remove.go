package catalog

import (
	"path/filepath"

	"github.com/pkg/errors"
)

// TreeRemover abstracts the filesystem-mutation collaborator used by
// RemoveSubtree to physically delete a directory tree once the in-index
// removal has been validated.
type TreeRemover interface {
	RemoveTree(path string) error
}

// RemoveSubtree deletes the directory at path, and every node beneath it,
// from both the filesystem (via remove) and the Store. It rebuilds s in
// place the same way Prune does, so every surviving address is renumbered.
//
// The physical removal happens after the in-index check but before the
// rebuild is committed: if remove fails, s is left untouched and the
// caller's on-disk catalog still matches the (now stale) filesystem state,
// ready for inspection rather than silently diverging.
func RemoveSubtree(s *Store, idx PathIndex, path string, remove TreeRemover) error {
	path = filepath.Clean(path)

	target, ok := idx[path]
	if !ok {
		return errors.Errorf("%q is not a catalogued directory", path)
	}
	if IsRoot(target) {
		return errors.New("cannot remove the catalog root")
	}

	doomed := make(map[Address]bool)
	doomed[target] = true
	for i := int(target) + 1; i < s.Len(); i++ {
		if doomed[s.nodes[i].Parent] {
			doomed[Address(i)] = true
		}
	}

	if err := remove.RemoveTree(path); err != nil {
		return errors.Wrapf(err, "removing %q from filesystem", path)
	}

	newStore := NewStore()
	newIdx := make(PathIndex)
	remap := make(map[Address]Address)

	for addr := 0; addr < s.Len(); addr++ {
		if doomed[Address(addr)] {
			continue
		}
		n := s.nodes[addr]
		if !IsRoot(Address(addr)) {
			newParent, ok := remap[n.Parent]
			if !ok {
				return errors.Wrapf(ErrCorruptIndex, "parent of surviving address %d was removed", addr)
			}
			n.Parent = newParent
		}
		newAddr, err := newStore.Append(n)
		if err != nil {
			return err
		}
		remap[Address(addr)] = newAddr
		if n.IsDir {
			p, err := newStore.FullPath(newAddr, pathSeparator)
			if err != nil {
				return err
			}
			newIdx[string(p)] = newAddr
		}
	}

	*s = *newStore
	for k, v := range newIdx {
		idx[k] = v
	}
	for k := range idx {
		if _, ok := newIdx[k]; !ok {
			delete(idx, k)
		}
	}
	return nil
}
