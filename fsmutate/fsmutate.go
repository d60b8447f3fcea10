// Package fsmutate is the filesystem-mutation collaborator invoked by the
// catalog's mv and rm_recursive operations: a rename-with-copy-fallback
// for cross-device moves, and directory/file copy helpers used by that
// fallback.
package fsmutate

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

// Mutator performs the physical filesystem operations backing mv and
// rm_recursive. It satisfies both catalog.Mover and catalog.Remover.
type Mutator struct{}

// New returns a Mutator.
func New() *Mutator { return &Mutator{} }

// MoveItem moves the directory or file at from to a new path inside to,
// named after from's own base name. It renames when possible and falls
// back to copy-then-remove across filesystem boundaries.
func (*Mutator) MoveItem(from, to string) error {
	target := filepath.Join(to, filepath.Base(from))
	return RenameWithFallback(from, target)
}

// RemoveFile removes a single file. It is not an error for the file to
// already be gone, matching the query engine's best-effort cleanup.
func (*Mutator) RemoveFile(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", path)
	}
	return nil
}

// RemoveEmptyDir removes dir only if it contains no entries; a non-empty
// directory or one that doesn't exist is reported as an error so that the
// caller's best-effort ancestor-cleanup walk stops there.
func (*Mutator) RemoveEmptyDir(dir string) error {
	return os.Remove(dir)
}

// RemoveTree removes path and everything beneath it, used by rm_recursive.
func (*Mutator) RemoveTree(path string) error {
	return os.RemoveAll(path)
}

// RenameWithFallback attempts to rename src to dst, but falls back to
// copying in the event of a cross-device link error. If the fallback copy
// succeeds, src is still removed, emulating normal rename behavior.
func RenameWithFallback(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}

	if fi, err := os.Stat(src); err == nil {
		if dstfi, err := os.Stat(dst); fi.IsDir() && err == nil && dstfi.IsDir() {
			return errors.Errorf("cannot rename directory %s to existing dst %s", src, dst)
		}
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	terr, ok := err.(*os.LinkError)
	if !ok {
		return err
	}
	if terr.Err != syscall.EXDEV {
		return errors.Wrapf(terr, "link error: cannot rename %s to %s", src, dst)
	}
	return renameByCopy(src, dst)
}

// renameByCopy emulates a rename across devices: copy, then remove the
// original.
func renameByCopy(src, dst string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}

	var cerr error
	if fi.IsDir() {
		cerr = CopyDir(src, dst)
		if cerr != nil {
			cerr = errors.Wrap(cerr, "copying directory failed")
		}
	} else {
		cerr = copyFile(src, dst)
		if cerr != nil {
			cerr = errors.Wrap(cerr, "copying file failed")
		}
	}
	if cerr != nil {
		return errors.Wrapf(cerr, "rename fallback failed: cannot rename %s to %s", src, dst)
	}

	return errors.Wrapf(os.RemoveAll(src), "cannot delete %s", src)
}

var (
	errSrcNotDir = errors.New("source is not a directory")
	errDstExist  = errors.New("destination already exists")
)

// CopyDir recursively copies a directory tree, attempting to preserve
// permissions. Source directory must exist, destination directory must
// *not* exist.
func CopyDir(src, dst string) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return errSrcNotDir
	}

	_, err = os.Stat(dst)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if err == nil {
		return errDstExist
	}

	if err := os.MkdirAll(dst, fi.Mode()); err != nil {
		return errors.Wrapf(err, "cannot mkdir %s", dst)
	}

	entries, err := ioutil.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "cannot read directory %s", src)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := CopyDir(srcPath, dstPath); err != nil {
				return errors.Wrap(err, "copying directory failed")
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return errors.Wrap(err, "copying file failed")
			}
		}
	}
	return nil
}

// copyFile copies the contents and mode of src to dst, handling symlinks by
// recreating them rather than following them.
func copyFile(src, dst string) error {
	if sym, err := isSymlink(src); err != nil {
		return errors.Wrap(err, "symlink check failed")
	} else if sym {
		resolved, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(resolved, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}

	si, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, si.Mode())
}

func isSymlink(path string) (bool, error) {
	l, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	return l.Mode()&os.ModeSymlink == os.ModeSymlink, nil
}
