package github

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MaxArchiveSize caps the total number of bytes extracted from one archive.
const MaxArchiveSize = 2 << 30

// ExtractTarball unpacks a gzipped tarball into dir.
// The single top-level directory GitHub wraps archives in is stripped.
// Only regular files and directories are written; entries that would
// escape dir fail the extraction with ErrUnsafeArchive.
func ExtractTarball(r io.Reader, dir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var written int64
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		name := stripTopLevel(hdr.Name)
		if name == "" {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return fmt.Errorf("%w: %s", ErrUnsafeArchive, hdr.Name)
		}
		target := filepath.Join(dir, filepath.FromSlash(name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", name, err)
			}
		case tar.TypeReg:
			written += hdr.Size
			if written > MaxArchiveSize {
				return fmt.Errorf("archive exceeds %d bytes", int64(MaxArchiveSize))
			}
			if err := writeFile(target, tr, hdr.Size); err != nil {
				return fmt.Errorf("extract %s: %w", name, err)
			}
		default:
			// Symlinks, hard links and pax headers are not needed for indexing.
		}
	}
}

func writeFile(target string, r io.Reader, size int64) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(f, r, size); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// stripTopLevel drops the first path element of an archive entry name.
func stripTopLevel(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return ""
}
