package catalog

import "github.com/pkg/errors"

// Sentinel errors covering the fatal, unwind-the-operation classes. A
// per-file read or stat failure during a crawl is deliberately absorbed at
// the call site and logged instead of returned as one of these.
var (
	// ErrCorruptIndex is returned when a stored Node Store violates one of
	// the forest invariants: a parent cycle, a parent that addresses a
	// non-directory, or a SENTINEL parent on a non-root node.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrBrokenParent is returned when a crawl needs the Path Index entry
	// for a path's parent directory and it is not present. Pre-order
	// discipline plus root-splicing should make this impossible; seeing it
	// indicates a bug in the caller's walk order.
	ErrBrokenParent = errors.New("broken parent: parent directory not yet indexed")

	// ErrNotImplemented is returned by Prune when a directory's type has
	// changed on disk (file where a dir was, or vice versa). Handling that
	// correctly requires fanning the removal out to every descendant, which
	// this version does not implement.
	ErrNotImplemented = errors.New("not implemented: directory type change during prune")

	// ErrUnsupportedScale is returned by Append when the store would grow
	// past the 32-bit address space.
	ErrUnsupportedScale = errors.New("unsupported scale: node count would exceed 2^32-2")
)
