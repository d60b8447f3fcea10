package catalog

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// PropagateSizes derives every directory's Size as the sum of its
// children's sizes, bottom-up. It resets every directory's size to 0 first,
// so it is safe to call again after an incremental crawl.
//
// The algorithm computes each node's depth in a single forward pass (a
// node's depth is always its parent's depth plus one, and parents always
// precede children by address), then walks depths from deepest to
// shallowest, accumulating each node's size into its parent. This avoids
// recursion, which would risk a stack overflow on a pathologically deep
// tree loaded from an untrusted file.
func PropagateSizes(s *Store) error {
	n := s.Len()
	if n == 0 {
		return nil
	}

	for i := 0; i < n; i++ {
		if s.nodes[i].IsDir {
			s.nodes[i].Size = 0
		}
	}

	depths, maxDepth, err := computeDepths(s)
	if err != nil {
		return err
	}

	for level := maxDepth; level >= 1; level-- {
		for i := 0; i < n; i++ {
			if depths[i] != level {
				continue
			}
			parent := s.nodes[i].Parent
			s.nodes[parent].Size += s.nodes[i].Size
		}
	}
	return nil
}

// PropagateHashes derives every directory's Hash from the sorted
// concatenation of its children's hashes, bottom-up, via HashChildren. Like
// PropagateSizes, it resets every directory's hash first so repeated calls
// after incremental crawls are safe.
//
// File hashes are never touched here; they were computed by the Crawler at
// discovery time and are treated as already final.
func PropagateHashes(s *Store) error {
	n := s.Len()
	if n == 0 {
		return nil
	}

	for i := 0; i < n; i++ {
		if s.nodes[i].IsDir {
			s.nodes[i].Hash = EmptyHash
		}
	}

	depths, maxDepth, err := computeDirDepths(s)
	if err != nil {
		return err
	}

	children := make(map[Address][]Address)
	for i := 1; i < n; i++ {
		p := s.nodes[i].Parent
		children[p] = append(children[p], Address(i))
	}

	for level := int(maxDepth); level >= 0; level-- {
		for i := 0; i < n; i++ {
			if depths[i] != uint16(level) {
				continue
			}
			kids := children[Address(i)]
			names := make([][]byte, len(kids))
			hashes := make([][32]byte, len(kids))
			for j, k := range kids {
				names[j] = s.nodes[k].Name
				hashes[j] = s.nodes[k].Hash
			}
			s.nodes[i].Hash = HashChildren(names, hashes)
			if !IsRoot(Address(i)) && s.nodes[i].Hash == EmptyHash {
				return errors.Errorf("propagated hash collided with empty sentinel for %q", s.nodes[i].Name)
			}
		}
	}

	for i := 1; i < n; i++ {
		if s.nodes[i].Hash == EmptyHash {
			return errors.Wrapf(ErrCorruptIndex, "address %d left unhashed after propagation", i)
		}
	}
	return nil
}

const unsetDepth = math.MaxUint16

// computeDepths assigns every node a depth (root is 0) in a single forward
// pass, relying on the forest invariant that a parent's address is always
// lower than its children's.
func computeDepths(s *Store) ([]uint16, uint16, error) {
	n := s.Len()
	depths := make([]uint16, n)
	for i := range depths {
		depths[i] = unsetDepth
	}
	depths[0] = 0
	var maxDepth uint16
	for i := 1; i < n; i++ {
		p := s.nodes[i].Parent
		if depths[p] == unsetDepth {
			return nil, 0, errors.Wrapf(ErrCorruptIndex, "parent %d of address %d not yet leveled", p, i)
		}
		depths[i] = depths[p] + 1
		if depths[i] > maxDepth {
			maxDepth = depths[i]
		}
	}
	return depths, maxDepth, nil
}

// computeDirDepths is identical to computeDepths but only assigns a depth
// to directory nodes; file nodes are left at unsetDepth since they are
// leaves whose hash was computed directly and never participate in the
// level sweep as a propagation target.
func computeDirDepths(s *Store) ([]uint16, uint16, error) {
	n := s.Len()
	depths := make([]uint16, n)
	for i := range depths {
		depths[i] = unsetDepth
	}
	depths[0] = 0
	var maxDepth uint16
	for i := 1; i < n; i++ {
		if !s.nodes[i].IsDir {
			continue
		}
		p := s.nodes[i].Parent
		if depths[p] == unsetDepth {
			return nil, 0, errors.Wrapf(ErrCorruptIndex, "parent %d of address %d not yet leveled", p, i)
		}
		depths[i] = depths[p] + 1
		if depths[i] > maxDepth {
			maxDepth = depths[i]
		}
	}
	return depths, maxDepth, nil
}

// sortAddressesByName sorts addrs in place by node name, byte-wise: the
// same canonical order HashChildren uses internally.
func sortAddressesByName(s *Store, addrs []Address) {
	sort.Slice(addrs, func(i, j int) bool {
		return compareBytes(s.nodes[addrs[i]].Name, s.nodes[addrs[j]].Name) < 0
	})
}
