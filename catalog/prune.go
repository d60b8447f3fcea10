package catalog

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// PruneResult summarizes what Prune did, for logging and for the CLI's
// `update` verb.
type PruneResult struct {
	Before  int
	After   int
	Deleted int
}

// Prune rebuilds s in place, dropping every entry whose live filesystem
// state contradicts what's stored: a path that no longer exists, or a file
// whose size or modification time has changed. Surviving entries are
// re-addressed (address 0 is
// always the root, and a parent always precedes its children, exactly as
// after a crawl) since nothing downstream may assume addresses are stable
// across a Prune.
//
// A node whose type changed (a path that used to be a directory and is now
// a regular file, or vice versa) is not handled: doing so correctly
// requires recursively dropping every descendant the directory used to
// have, which this rebuild — a single forward pass — cannot do without a
// second pass. Prune returns ErrNotImplemented in that case.
func Prune(s *Store) (PruneResult, error) {
	result := PruneResult{Before: s.Len()}

	newStore := NewStore()
	idx := make(PathIndex)

	for addr := 0; addr < s.Len(); addr++ {
		n := &s.nodes[addr]
		path, err := s.FullPath(Address(addr), pathSeparator)
		if err != nil {
			return result, err
		}

		fi, statErr := os.Lstat(string(path))
		if statErr != nil {
			if os.IsNotExist(statErr) {
				result.Deleted++
				continue
			}
			return result, errors.Wrapf(statErr, "stat %q", path)
		}

		if fi.IsDir() != n.IsDir {
			return result, errors.Wrapf(ErrNotImplemented, "directory type change at %q", path)
		}
		if !n.IsDir {
			if uint64(fi.Size()) != n.Size || modTimeSecs(fi) != n.Modified {
				result.Deleted++
				continue
			}
		}

		copyNode := *n
		if !IsRoot(Address(addr)) {
			parentPath := filepath.Dir(string(path))
			parentAddr, ok := idx[parentPath]
			if !ok {
				return result, errors.Wrapf(ErrBrokenParent, "parent of %q missing from rebuild", path)
			}
			copyNode.Parent = parentAddr
		}

		newAddr, err := newStore.Append(copyNode)
		if err != nil {
			return result, err
		}
		if n.IsDir {
			idx[string(path)] = newAddr
		}
	}

	*s = *newStore
	result.After = s.Len()
	return result, nil
}
