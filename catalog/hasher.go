package catalog

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"lukechampine.com/blake3"
)

// HashFile streams the named file's bytes through a 256-bit BLAKE3 digest
// and returns it. The file handle is closed on every exit path, including
// error paths.
func HashFile(path string) ([32]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return EmptyHash, errors.Wrap(err, "cannot open")
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return EmptyHash, errors.Wrap(err, "cannot read")
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// HashChildren derives a directory's digest from the sorted concatenation
// of its children's digests, making a directory's identity equal to the
// multiset of its descendants' content identities. childHashes must already
// be in the order corresponding to childNames; this function sorts a copy
// of the pairing by name and hashes the hashes only, never the names.
func HashChildren(childNames [][]byte, childHashes [][32]byte) [32]byte {
	order := make([]int, len(childNames))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		return compareBytes(childNames[a], childNames[b]) < 0
	})

	h := blake3.New(32, nil)
	for _, i := range order {
		h.Write(childHashes[i][:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
