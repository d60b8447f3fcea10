package catalog

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// IsArchive reports whether path's extension marks it as a candidate for
// archive-as-directory handling, per opts.ArchiveExtensions. Matching is a
// bare extension comparison (no leading dot), case-sensitive. "zip" is not
// in the default extension list, so with DefaultOptions a zip is never
// matched here even though decompressArchive can unpack one; it is matched
// only when a caller adds "zip" to ArchiveExtensions.
func IsArchive(path string, opts Options) bool {
	if !opts.DecompressArchives {
		return false
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	for _, candidate := range opts.ArchiveExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// decompressArchive unpacks the archive at path into dir, dispatching on
// extension: gz and xz are single-stream decompressors (the decompressed
// file keeps the archive's file stem as its name), tar and tgz unpack a
// full tree, and zip (reached from a crawl only when "zip" has been added
// to Options.ArchiveExtensions) unpacks via archive/zip's random-access
// reader.
func decompressArchive(path, dir string) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	switch ext {
	case "gz":
		return decompressGzip(path, dir)
	case "tar":
		return decompressTar(path, dir, nil)
	case "tgz":
		return decompressTarGzip(path, dir)
	case "xz":
		return decompressXz(path, dir)
	case "zip":
		return decompressZip(path, dir)
	default:
		return errors.Errorf("unsupported archive extension %q", ext)
	}
}

func stemName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func decompressGzip(path, dir string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "reading gzip stream")
	}
	defer gz.Close()

	out, err := os.Create(filepath.Join(dir, stemName(path)))
	if err != nil {
		return errors.Wrap(err, "creating decompressed file")
	}
	defer out.Close()

	_, err = io.Copy(out, gz)
	return errors.Wrap(err, "decompressing gzip stream")
}

func decompressXz(path, dir string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "reading xz stream")
	}

	out, err := os.Create(filepath.Join(dir, stemName(path)))
	if err != nil {
		return errors.Wrap(err, "creating decompressed file")
	}
	defer out.Close()

	_, err = io.Copy(out, xzr)
	return errors.Wrap(err, "decompressing xz stream")
}

func decompressTar(path, dir string, wrap func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	var r io.Reader = f
	if wrap != nil {
		r, err = wrap(r)
		if err != nil {
			return errors.Wrap(err, "wrapping tar stream")
		}
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading tar entry")
		}

		target := filepath.Join(dir, filepath.Clean(hdr.Name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "creating directory %q", target)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "creating parent of %q", target)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return errors.Wrapf(err, "creating %q", target)
			}
			_, copyErr := io.Copy(out, tr)
			closeErr := out.Close()
			if copyErr != nil {
				return errors.Wrapf(copyErr, "writing %q", target)
			}
			if closeErr != nil {
				return errors.Wrapf(closeErr, "closing %q", target)
			}
		}
	}
}

func decompressTarGzip(path, dir string) error {
	return decompressTar(path, dir, func(r io.Reader) (io.Reader, error) {
		return gzip.NewReader(r)
	})
}

func decompressZip(path, dir string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return errors.Wrap(err, "opening zip archive")
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(dir, filepath.Clean(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "creating directory %q", target)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.Wrapf(err, "creating parent of %q", target)
		}

		rc, err := f.Open()
		if err != nil {
			return errors.Wrapf(err, "opening zip entry %q", f.Name)
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return errors.Wrapf(err, "creating %q", target)
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		closeErr := out.Close()
		if copyErr != nil {
			return errors.Wrapf(copyErr, "writing %q", target)
		}
		if closeErr != nil {
			return errors.Wrapf(closeErr, "closing %q", target)
		}
	}
	return nil
}
