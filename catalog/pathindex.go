package catalog

import "path/filepath"

// pathSeparator is used for every joined path stored in the index and
// produced by FullPath. It is the OS-native separator, matching
// filepath.Separator.
var pathSeparator = string(filepath.Separator)

// PathIndex maps an absolute path (byte-exact) to the address of the
// directory node it names. It holds addresses, not node ownership — the
// Store remains the sole owner. Populated only for directories.
type PathIndex map[string]Address

// BuildPathIndex rebuilds a PathIndex by scanning s in address order and
// recording FullPath(a) -> a for every directory node. Must be called
// again any time the Store is rebuilt (e.g. after Prune), since addresses
// are not stable across a rebuild.
func BuildPathIndex(s *Store) (PathIndex, error) {
	idx := make(PathIndex, s.Len())
	err := s.Iterate(func(addr Address, n *Node) error {
		if !n.IsDir {
			return nil
		}
		p, err := s.FullPath(addr, pathSeparator)
		if err != nil {
			return err
		}
		idx[string(p)] = addr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// DirToFiles maps a directory's address to the addresses of its immediate
// file (non-directory) children. It is the Go analogue of the design
// document's "directory-to-files map": CrawlAdd rebuilds it from the Store
// with BuildDirToFiles (so after a Prune it reflects the pruned Store), and
// the Crawler's incremental skip test consumes it.
type DirToFiles map[Address][]Address

// BuildDirToFiles scans s and groups every file node under its parent
// directory's address.
func BuildDirToFiles(s *Store) (DirToFiles, error) {
	m := make(DirToFiles)
	err := s.Iterate(func(addr Address, n *Node) error {
		if n.IsDir {
			return nil
		}
		m[n.Parent] = append(m[n.Parent], addr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
