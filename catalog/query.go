package catalog

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DupeGroup is a set of nodes sharing a (hash, size) pair, ranked for
// reporting by dedup.
type DupeGroup struct {
	Hash       [32]byte
	Size       uint64
	Paths      []string
	BytesSaved uint64
}

// Dedup groups every node (file and directory alike) in s by (hash, size),
// keeping only groups with more than one member, and ranks them by bytes
// saved (size * (count-1)) descending. It requires PropagateHashes to have
// already been run: a root node still carrying EmptyHash is skipped, and any
// other node carrying EmptyHash makes Dedup return ErrCorruptIndex, so an
// un-propagated store can never report a spurious "duplicate" group of
// every directory at once.
func Dedup(s *Store) ([]DupeGroup, error) {
	type key struct {
		hash [32]byte
		size uint64
	}
	groups := make(map[key][]Address)

	err := s.Iterate(func(addr Address, n *Node) error {
		if n.Hash == EmptyHash {
			if IsRoot(addr) {
				return nil
			}
			return errors.Wrapf(ErrCorruptIndex, "address %d has unpropagated hash", addr)
		}
		k := key{n.Hash, n.Size}
		groups[k] = append(groups[k], addr)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var result []DupeGroup
	for k, addrs := range groups {
		if len(addrs) < 2 {
			continue
		}
		paths := make([]string, 0, len(addrs))
		for _, a := range addrs {
			p, err := s.FullPath(a, pathSeparator)
			if err != nil {
				return nil, err
			}
			paths = append(paths, string(p))
		}
		sort.Strings(paths)
		result = append(result, DupeGroup{
			Hash:       k.hash,
			Size:       k.size,
			Paths:      paths,
			BytesSaved: k.size * uint64(len(addrs)-1),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BytesSaved > result[j].BytesSaved
	})
	return result, nil
}

// ElsewhereReport summarizes an all_files_elsewhere query.
type ElsewhereReport struct {
	NumDupes       int
	NumMissing     int
	NumDirs        int
	NumEmptyFiles  int
	NumDupedBytes  uint64
	NumMissingBytes uint64
	MissingPaths   []string
	RemovedPaths   []string
}

// Remover abstracts the filesystem-mutation collaborator used when
// AllFilesElsewhere is asked to remove covered duplicates. Kept as an
// interface here so query logic stays independent of any particular
// mutation implementation.
type Remover interface {
	RemoveFile(path string) error
	RemoveEmptyDir(path string) error
}

// AllFilesElsewhere checks, for every file under target, whether a file
// with the same (hash, size) exists anywhere outside target. Directories
// and empty files are excluded from coverage accounting (all empty files
// share one content hash and size 0, so each would otherwise spuriously
// "match" every other empty file). When remove is non-nil, a covered file is unlinked and
// then empty ancestor directories up to target are removed, best-effort,
// stopping at the first non-empty one; the in-memory Store is not updated
// by removal, matching the design's note that callers must re-update
// afterwards.
func AllFilesElsewhere(s *Store, target string, remove Remover) (ElsewhereReport, error) {
	target = filepath.Clean(target)

	type key struct {
		hash [32]byte
		size uint64
	}
	elsewhere := make(map[key]bool)

	err := s.Iterate(func(addr Address, n *Node) error {
		if n.IsDir || n.Size == 0 {
			return nil
		}
		p, err := s.FullPath(addr, pathSeparator)
		if err != nil {
			return err
		}
		if !underPath(string(p), target) {
			elsewhere[key{n.Hash, n.Size}] = true
		}
		return nil
	})
	if err != nil {
		return ElsewhereReport{}, err
	}

	var report ElsewhereReport
	err = s.Iterate(func(addr Address, n *Node) error {
		p, err := s.FullPath(addr, pathSeparator)
		if err != nil {
			return err
		}
		path := string(p)
		if !underPath(path, target) {
			return nil
		}
		if n.IsDir {
			report.NumDirs++
			return nil
		}
		if n.Size == 0 {
			report.NumEmptyFiles++
			return nil
		}

		if !elsewhere[key{n.Hash, n.Size}] {
			report.NumMissing++
			report.NumMissingBytes += n.Size
			report.MissingPaths = append(report.MissingPaths, path)
			return nil
		}

		report.NumDupes++
		report.NumDupedBytes += n.Size

		if remove != nil {
			if err := remove.RemoveFile(path); err != nil {
				return errors.Wrapf(err, "removing %q", path)
			}
			report.RemovedPaths = append(report.RemovedPaths, path)
			removeEmptyAncestors(remove, filepath.Dir(path), target)
		}
		return nil
	})
	if err != nil {
		return ElsewhereReport{}, err
	}
	return report, nil
}

func removeEmptyAncestors(remove Remover, dir, target string) {
	for {
		if dir == target || dir == string(filepath.Separator) || dir == "." {
			return
		}
		if err := remove.RemoveEmptyDir(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func underPath(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// Stats is a summary over a (possibly prefix-restricted) subset of a Store.
type Stats struct {
	NumEntries       int
	NumFiles         int
	NumDirs          int
	TotalSize        uint64
	LargestEntryName string
	LargestEntrySize uint64
}

// ComputeStats reports entry/file/dir counts and total size, optionally
// restricted to paths under prefix, plus the single largest entry by size
// over the *entire* store — the largest-entry figure is never restricted
// to prefix.
func ComputeStats(s *Store, prefix string) (Stats, error) {
	var st Stats
	var largestName string
	var largestSize uint64

	err := s.Iterate(func(addr Address, n *Node) error {
		if uint64(n.Size) > largestSize {
			largestSize = n.Size
			largestName = string(n.Name)
		}

		if prefix != "" {
			p, err := s.FullPath(addr, pathSeparator)
			if err != nil {
				return err
			}
			if !underPath(string(p), filepath.Clean(prefix)) {
				return nil
			}
		}

		st.NumEntries++
		if n.IsDir {
			st.NumDirs++
		} else {
			st.NumFiles++
			st.TotalSize += n.Size
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	st.LargestEntryName = largestName
	st.LargestEntrySize = largestSize
	return st, nil
}
