package catalog

import (
	"bufio"
	"compress/zlib"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/theckman/go-flock"
)

// magic and formatVersion guard against loading a file that isn't a fscat
// catalog, or one written by an incompatible encoder.
const (
	magic         uint32 = 0x66736361 // "fsca"
	formatVersion uint16 = 1
)

// Save writes s to filename as a zlib-compressed packed binary stream. An
// advisory lock on filename+".lock" is held for the duration of the write
// so that two processes never interleave writes to the same catalog; this
// does not protect against a reader observing a half-written file produced
// by a process that doesn't use the same lock. Save replaces filename only
// after the full stream has been written to a temporary file, so a crash
// mid-write never corrupts the previously saved catalog.
func Save(filename string, s *Store) error {
	lock := flock.NewFlock(filename + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return errors.Wrap(err, "acquiring save lock")
	}
	if !locked {
		return errors.Errorf("catalog %q is locked by another process", filename)
	}
	defer lock.Unlock()

	tmp := filename + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}

	bw := bufio.NewWriter(f)
	zw := zlib.NewWriter(bw)

	if err := encodeStore(zw, s); err != nil {
		zw.Close()
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "closing compressor")
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "flushing writer")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "closing temp file")
	}

	if err := os.Rename(tmp, filename); err != nil {
		return errors.Wrap(err, "renaming temp file into place")
	}
	return nil
}

// Load reads a Store previously written by Save. It validates the forest
// invariants before returning, since the file may have been tampered with
// or come from an incompatible or corrupted encoder.
func Load(filename string) (*Store, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening catalog")
	}
	defer f.Close()

	zr, err := zlib.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrap(err, "opening compressed stream")
	}
	defer zr.Close()

	s, err := decodeStore(zr)
	if err != nil {
		return nil, err
	}
	if err := s.CheckInvariants(); err != nil {
		return nil, err
	}
	return s, nil
}

func encodeStore(w io.Writer, s *Store) error {
	if err := binary.Write(w, binary.LittleEndian, magic); err != nil {
		return errors.Wrap(err, "writing magic")
	}
	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return errors.Wrap(err, "writing version")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(s.Len())); err != nil {
		return errors.Wrap(err, "writing node count")
	}

	for i := 0; i < s.Len(); i++ {
		n := &s.nodes[i]
		if err := writeNode(w, n); err != nil {
			return errors.Wrapf(err, "writing node %d", i)
		}
	}
	return nil
}

func writeNode(w io.Writer, n *Node) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(n.Name))); err != nil {
		return err
	}
	if _, err := w.Write(n.Name); err != nil {
		return err
	}

	var isDir uint8
	if n.IsDir {
		isDir = 1
	}
	if err := binary.Write(w, binary.LittleEndian, isDir); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(n.Parent)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, n.Size); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, n.Modified); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, n.Accessed); err != nil {
		return err
	}
	_, err := w.Write(n.Hash[:])
	return err
}

func decodeStore(r io.Reader) (*Store, error) {
	var gotMagic uint32
	if err := binary.Read(r, binary.LittleEndian, &gotMagic); err != nil {
		return nil, errors.Wrap(err, "reading magic")
	}
	if gotMagic != magic {
		return nil, errors.Wrapf(ErrCorruptIndex, "bad magic %#x", gotMagic)
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "reading version")
	}
	if version != formatVersion {
		return nil, errors.Errorf("unsupported catalog format version %d", version)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, errors.Wrap(err, "reading node count")
	}

	s := &Store{nodes: make([]Node, 0, count)}
	for i := uint32(0); i < count; i++ {
		n, err := readNode(r)
		if err != nil {
			return nil, errors.Wrapf(err, "reading node %d", i)
		}
		s.nodes = append(s.nodes, n)
	}
	return s, nil
}

func readNode(r io.Reader) (Node, error) {
	var n Node

	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return n, err
	}
	n.Name = make([]byte, nameLen)
	if _, err := io.ReadFull(r, n.Name); err != nil {
		return n, err
	}

	var isDir uint8
	if err := binary.Read(r, binary.LittleEndian, &isDir); err != nil {
		return n, err
	}
	n.IsDir = isDir != 0

	var parent uint32
	if err := binary.Read(r, binary.LittleEndian, &parent); err != nil {
		return n, err
	}
	n.Parent = Address(parent)

	if err := binary.Read(r, binary.LittleEndian, &n.Size); err != nil {
		return n, err
	}
	if err := binary.Read(r, binary.LittleEndian, &n.Modified); err != nil {
		return n, err
	}
	if err := binary.Read(r, binary.LittleEndian, &n.Accessed); err != nil {
		return n, err
	}
	if _, err := io.ReadFull(r, n.Hash[:]); err != nil {
		return n, err
	}
	return n, nil
}
