// Package catalog implements an in-memory, content-addressed catalog of
// files and directories: a flat parent-indexed node store, the crawler that
// populates it, the propagation passes that derive directory sizes and
// content hashes, and the query algorithms (dedup, elsewhere-coverage)
// built on top of it.
package catalog

import (
	"math"

	"github.com/pkg/errors"
)

// Address is the position of a Node within a Store. It doubles as the
// node's identity: two nodes are the same iff they occupy the same address.
type Address uint32

// Sentinel marks the absence of a parent. Only address 0 (the synthetic
// root) may carry it.
const Sentinel Address = math.MaxUint32

// maxNodes is the largest number of nodes a Store may hold. One value below
// math.MaxUint32 is reserved for Sentinel.
const maxNodes = math.MaxUint32 - 1

// EmptyHash is the reserved all-zero digest meaning "unset". A real
// computed hash must never collide with it; this is enforced only by
// reservation, not by re-hashing.
var EmptyHash [32]byte

// Node is one entry in the catalog: a file or a directory.
type Node struct {
	// Name is the final path component, stored as the raw bytes returned by
	// the filesystem. For the synthetic root it is the anchor path (e.g.
	// "/" or `C:\`). Kept as []byte rather than string so that a
	// non-UTF-8 filename round-trips exactly through the Path Index and
	// persistence layer.
	Name []byte

	IsDir bool

	// Parent is the address of the containing directory. Sentinel only on
	// address 0.
	Parent Address

	// Size is the file's byte length at scan time, or the derived subtree
	// size for a directory (see Propagator).
	Size uint64

	Modified uint64
	Accessed uint64

	// Hash is the file's content digest, or the derived subtree digest for
	// a directory. EmptyHash means "unset".
	Hash [32]byte
}

// Store is the flat, ordered node sequence. A node's address is its
// position in this sequence; address 0 is the synthetic root. Nodes are
// appended and never reordered in place — a rebuild (Pruner) produces a new
// Store whose addresses are unrelated to the old one.
type Store struct {
	nodes []Node
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Len reports the number of nodes in the store.
func (s *Store) Len() int { return len(s.nodes) }

// Append pushes a new node and returns its address.
func (s *Store) Append(n Node) (Address, error) {
	if len(s.nodes) >= maxNodes {
		return 0, ErrUnsupportedScale
	}
	s.nodes = append(s.nodes, n)
	return Address(len(s.nodes) - 1), nil
}

// Node returns a pointer to the node at addr. The pointer is invalidated by
// any subsequent Append (slice reallocation) — callers that need a stable
// reference across appends should re-fetch by address.
func (s *Store) Node(addr Address) (*Node, error) {
	if int(addr) >= len(s.nodes) {
		return nil, errors.Errorf("address %d out of range (len %d)", addr, len(s.nodes))
	}
	return &s.nodes[addr], nil
}

// IsRoot reports whether addr is the synthetic root (address 0).
func IsRoot(addr Address) bool { return addr == 0 }

// FullPath reconstructs the absolute path of addr by walking Parent
// pointers back to the root, then joins the collected components with sep.
// It maintains a visited set and fails with ErrCorruptIndex if it detects a
// cycle, rather than looping forever or panicking — the store may have been
// loaded from an untrusted file.
func (s *Store) FullPath(addr Address, sep string) ([]byte, error) {
	var components [][]byte
	seen := make(map[Address]bool)

	cur := addr
	for {
		n, err := s.Node(cur)
		if err != nil {
			return nil, err
		}
		components = append(components, n.Name)
		if IsRoot(cur) {
			break
		}
		if seen[cur] {
			return nil, errors.Wrapf(ErrCorruptIndex, "cycle detected while resolving address %d", addr)
		}
		seen[cur] = true
		if n.Parent == Sentinel {
			return nil, errors.Wrapf(ErrCorruptIndex, "non-root address %d carries sentinel parent", cur)
		}
		if seen[n.Parent] {
			return nil, errors.Wrapf(ErrCorruptIndex, "cycle detected while resolving address %d", addr)
		}
		cur = n.Parent
	}

	// components were collected root-ward; reverse and join. The root's own
	// name (e.g. "/" or `C:\`) may already end in sep, so a separator is
	// only inserted between two components when the accumulated output
	// doesn't already end with one.
	out := make([]byte, 0, 64)
	for i := len(components) - 1; i >= 0; i-- {
		if len(out) > 0 && !hasSuffix(out, sep) {
			out = append(out, sep...)
		}
		out = append(out, components[i]...)
	}
	return out, nil
}

func hasSuffix(b []byte, suffix string) bool {
	if len(suffix) == 0 || len(b) < len(suffix) {
		return false
	}
	return string(b[len(b)-len(suffix):]) == suffix
}

// Iterate walks every node in address order (topological order, per forest
// invariant 2: a parent always precedes its children), calling fn for each.
// Iterate stops and returns fn's error as soon as fn returns a non-nil
// error.
func (s *Store) Iterate(fn func(Address, *Node) error) error {
	for i := range s.nodes {
		if err := fn(Address(i), &s.nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

// CheckInvariants verifies forest invariants 1 and 2 from the design
// document over every node in the store: address 0 carries Sentinel and no
// other node does, and every non-root node's parent is both a strictly
// lower address and a directory. Used by tests and by Load after
// deserializing an untrusted file.
func (s *Store) CheckInvariants() error {
	if len(s.nodes) == 0 {
		return nil
	}
	if s.nodes[0].Parent != Sentinel {
		return errors.Wrap(ErrCorruptIndex, "address 0 must carry sentinel parent")
	}
	for i := 1; i < len(s.nodes); i++ {
		n := &s.nodes[i]
		if n.Parent == Sentinel {
			return errors.Wrapf(ErrCorruptIndex, "address %d carries sentinel parent", i)
		}
		if int(n.Parent) >= i {
			return errors.Wrapf(ErrCorruptIndex, "address %d parent %d is not a lower address", i, n.Parent)
		}
		if !s.nodes[n.Parent].IsDir {
			return errors.Wrapf(ErrCorruptIndex, "address %d parent %d is not a directory", i, n.Parent)
		}
	}
	return nil
}
