package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// warner is the logging surface crawl code needs; satisfied by both Logger
// and InfoLogger.
type warner interface {
	Warnf(string, ...interface{})
}

// pendingHash is a file discovered during a walk whose content hash is
// deferred to the post-walk hashing pass rather than computed inline.
type pendingHash struct {
	addr Address
	path string
}

// Crawler walks a filesystem root and appends newly-discovered paths to a
// Store. It is stateless between calls; all mutable state (the Store, the
// Path Index, the directory-to-files map) is passed in and handed back by
// the caller, since the Pruner invalidates addresses on every rebuild and a
// Crawler must never cache them across a Store swap.
type Crawler struct {
	Options Options
}

// NewCrawler returns a Crawler configured with opts.
func NewCrawler(opts Options) *Crawler {
	return &Crawler{Options: opts}
}

// CrawlInitial populates an empty Store from scratch for one or more root
// paths, returning the Path Index built along the way.
func (c *Crawler) CrawlInitial(s *Store, roots []string) (PathIndex, error) {
	idx := make(PathIndex)
	dirToFiles := make(DirToFiles)
	for _, root := range roots {
		if err := c.crawlOneRoot(s, idx, dirToFiles, root); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// CrawlAdd extends an already-populated Store with any paths under root not
// already present. It rebuilds the Path Index and directory-to-files map
// from the current Store before walking, so a repeated call against an
// unchanged tree leaves the Store's length, contents and order unchanged —
// crawl_add is idempotent.
func (c *Crawler) CrawlAdd(s *Store, root string) error {
	idx, err := BuildPathIndex(s)
	if err != nil {
		return err
	}
	dirToFiles, err := BuildDirToFiles(s)
	if err != nil {
		return err
	}
	return c.crawlOneRoot(s, idx, dirToFiles, root)
}

// crawlOneRoot first splices in every not-yet-indexed ancestor directory of
// root (so that a freshly added root under an unrelated anchor still has a
// connected path back to address 0), then walks the tree in pre-order,
// appending anything the Path Index and directory-to-files map don't
// already know about.
func (c *Crawler) crawlOneRoot(s *Store, idx PathIndex, dirToFiles DirToFiles, root string) error {
	root = filepath.Clean(root)
	if !filepath.IsAbs(root) {
		return errors.Errorf("crawl root %q must be an absolute path", root)
	}

	log := c.Options.logger()

	if _, ok := idx[root]; !ok {
		if err := c.spliceRootAncestors(s, idx, root); err != nil {
			return err
		}
	}

	var pending []pendingHash
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted:            true,
		FollowSymbolicLinks: false,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			return c.visit(s, idx, dirToFiles, &pending, osPathname, osPathname, de.IsDir(), log)
		},
	})
	if err != nil {
		return err
	}
	return c.hashPending(s, pending, log)
}

// spliceRootAncestors materializes root and every ancestor directory of
// root that isn't already in the Path Index, from the nearest known
// ancestor (or the filesystem root, if none is known) down to root itself.
// This is the
// "root-splicing" policy: a newly added root is always reachable from
// address 0 by construction, never left as a disconnected subtree.
func (c *Crawler) spliceRootAncestors(s *Store, idx PathIndex, root string) error {
	var missing []string
	cursor := root
	for {
		if _, ok := idx[cursor]; ok {
			break
		}
		missing = append(missing, cursor)
		parent := filepath.Dir(cursor)
		if parent == cursor {
			break
		}
		cursor = parent
	}

	parentAddr := Sentinel
	if addr, ok := idx[cursor]; ok {
		parentAddr = addr
	}

	for i := len(missing) - 1; i >= 0; i-- {
		dir := missing[i]
		name := filepath.Base(dir)

		info, err := os.Stat(dir)
		if err != nil {
			return errors.Wrapf(err, "stat ancestor %q", dir)
		}

		addr, err := s.Append(Node{
			Name:     []byte(name),
			IsDir:    true,
			Parent:   parentAddr,
			Size:     0,
			Modified: modTimeSecs(info),
			Accessed: accessTimeSecs(info),
			Hash:     EmptyHash,
		})
		if err != nil {
			return err
		}
		if parentAddr != Sentinel && !s.nodes[parentAddr].IsDir {
			return errors.Wrap(ErrBrokenParent, dir)
		}
		idx[dir] = addr
		parentAddr = addr
	}
	return nil
}

// visit handles a single path yielded by the walk. path is the path recorded
// in the index and as the node's name (may be a synthetic archive-member
// path); diskPath is where the content actually lives on disk for Stat/Hash
// purposes (the two differ only for archive members, since the archive's
// scratch directory is removed once its own walk returns). It skips paths
// already present, paths excluded by name, and (if an archive is encountered
// with DecompressArchives enabled) delegates to archive handling; otherwise
// it appends a single node for the path.
func (c *Crawler) visit(s *Store, idx PathIndex, dirToFiles DirToFiles, pending *[]pendingHash, path, diskPath string, isDir bool, log warner) error {
	if base := filepath.Base(path); c.Options.excludes(base) {
		return filepath.SkipDir
	}

	if _, ok := idx[path]; ok {
		return nil
	}

	parentPath := filepath.Dir(path)
	parentAddr, ok := idx[parentPath]
	if !ok {
		return errors.Wrapf(ErrBrokenParent, "parent of %q not yet indexed", path)
	}

	name := filepath.Base(path)

	if !isDir {
		if alreadyPresent(s, dirToFiles, parentAddr, name) {
			return nil
		}
	}

	if !isDir && c.Options.DecompressArchives && IsArchive(path, c.Options) {
		return c.addArchive(s, idx, dirToFiles, pending, path, parentAddr, name, log)
	}

	info, err := os.Lstat(diskPath)
	if err != nil {
		log.Warnf("cannot stat %q: %v", diskPath, err)
		return nil
	}

	// Deferred hashing hands diskPath off to a worker goroutine that may run
	// long after this call returns; it is only safe when diskPath will stay
	// valid that whole time, which rules out archive members (diskPath
	// there points inside a scratch directory removed when the archive's
	// own walk finishes).
	deferHash := !isDir && path == diskPath && c.Options.HashWorkers > 1

	var size uint64
	hash := EmptyHash
	if !isDir {
		size = uint64(info.Size())
		if !deferHash {
			h, err := HashFile(diskPath)
			if err != nil {
				log.Warnf("cannot hash %q: %v", diskPath, err)
			} else {
				hash = h
			}
		}
	}

	addr, err := s.Append(Node{
		Name:     []byte(name),
		IsDir:    isDir,
		Parent:   parentAddr,
		Size:     size,
		Modified: modTimeSecs(info),
		Accessed: accessTimeSecs(info),
		Hash:     hash,
	})
	if err != nil {
		return err
	}

	if isDir {
		idx[path] = addr
	} else {
		dirToFiles[parentAddr] = append(dirToFiles[parentAddr], addr)
		if deferHash {
			*pending = append(*pending, pendingHash{addr: addr, path: diskPath})
		}
	}
	return nil
}

// hashPending computes content hashes for every file appended during the
// walk with deferred hashing, spreading the work across Options.HashWorkers
// goroutines. Each worker hashes independently and writes its result
// directly into the node at its own address, so no two workers ever touch
// the same node.
func (c *Crawler) hashPending(s *Store, pending []pendingHash, log warner) error {
	if len(pending) == 0 {
		return nil
	}

	workers := c.Options.HashWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(pending) {
		workers = len(pending)
	}

	jobs := make(chan pendingHash)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				h, err := HashFile(job.path)
				if err != nil {
					log.Warnf("cannot hash %q: %v", job.path, err)
					continue
				}
				if n, nerr := s.Node(job.addr); nerr == nil {
					n.Hash = h
				}
			}
		}()
	}

	for _, p := range pending {
		jobs <- p
	}
	close(jobs)
	wg.Wait()
	return nil
}

// addArchive unpacks the archive at path into a scratch directory and
// crawls it as though it were a directory at path, so the archive's
// contents appear beneath a single synthetic directory node named after the
// archive file.
func (c *Crawler) addArchive(s *Store, idx PathIndex, dirToFiles DirToFiles, pending *[]pendingHash, path string, parentAddr Address, name string, log warner) error {
	tmpDir, err := os.MkdirTemp("", "fscat-decomp")
	if err != nil {
		return errors.Wrap(err, "creating scratch directory")
	}
	defer os.RemoveAll(tmpDir)

	if err := decompressArchive(path, tmpDir); err != nil {
		log.Warnf("error unpacking archive %q: %v", path, err)
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "stat archive %q", path)
	}

	addr, err := s.Append(Node{
		Name:     []byte(name),
		IsDir:    true,
		Parent:   parentAddr,
		Size:     0,
		Modified: modTimeSecs(info),
		Accessed: accessTimeSecs(info),
		Hash:     EmptyHash,
	})
	if err != nil {
		return err
	}
	idx[path] = addr

	return godirwalk.Walk(tmpDir, &godirwalk.Options{
		Unsorted:            true,
		FollowSymbolicLinks: false,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if osPathname == tmpDir {
				return nil
			}
			rel := strings.TrimPrefix(strings.TrimPrefix(osPathname, tmpDir), string(filepath.Separator))
			virtualPath := filepath.Join(path, rel)
			return c.visit(s, idx, dirToFiles, pending, virtualPath, osPathname, de.IsDir(), log)
		},
	})
}

func alreadyPresent(s *Store, dirToFiles DirToFiles, parent Address, name string) bool {
	for _, addr := range dirToFiles[parent] {
		if string(s.nodes[addr].Name) == name {
			return true
		}
	}
	return false
}

func modTimeSecs(info os.FileInfo) uint64 {
	return uint64(info.ModTime().Unix())
}

// accessTimeSecs returns the modification time: the standard library's
// os.FileInfo does not expose atime portably, and this function does not
// read the real access time on any platform. The Accessed field therefore
// holds the modification time; no query relies on it.
func accessTimeSecs(info os.FileInfo) uint64 {
	return uint64(info.ModTime().Unix())
}
