// package archive implements the reversible compression envelope around a
// snapshot directory. Packing then unpacking reproduces every file
// byte-for-byte; the compressed form is opaque binary.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spotsnap/spotsnap/internal/shared"
)

// Format selects the envelope container.
type Format string

const (
	Zip Format = "zip"
	Tar Format = "tar"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "zip":
		return Zip, nil
	case "tar":
		return Tar, nil
	default:
		return "", fmt.Errorf("%w: unknown archive format %q (want zip or tar)", shared.ErrInvalidFlag, name)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == Tar {
		return ".tar.gz"
	}
	return ".zip"
}

// IsArchive reports whether the path looks like a packed snapshot.
func IsArchive(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".zip") || strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz")
}

// Pack writes the contents of srcDir into a single archive file at dest.
// Entry names are slash-separated paths relative to srcDir.
func Pack(srcDir, dest string, format Format) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%w: %s", shared.ErrOutputExists, dest)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	switch format {
	case Tar:
		return packTar(srcDir, out)
	default:
		return packZip(srcDir, out)
	}
}

// Unpack extracts an archive produced by [Pack] into destDir, which is
// created if missing. The container is chosen by file extension.
func Unpack(src, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}

	lower := strings.ToLower(src)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return unpackTar(src, destDir)
	}
	return unpackZip(src, destDir)
}

func walkEntries(srcDir string, visit func(relPath string, info fs.FileInfo, open func() (io.ReadCloser, error)) error) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		open := func() (io.ReadCloser, error) { return os.Open(path) }
		return visit(filepath.ToSlash(rel), info, open)
	})
}

func packZip(srcDir string, out io.Writer) error {
	zw := zip.NewWriter(out)

	err := walkEntries(srcDir, func(rel string, info fs.FileInfo, open func() (io.ReadCloser, error)) error {
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = rel
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		f, err := open()
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to pack zip: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip: %w", err)
	}
	return nil
}

func packTar(srcDir string, out io.Writer) error {
	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	err := walkEntries(srcDir, func(rel string, info fs.FileInfo, open func() (io.ReadCloser, error)) error {
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = rel

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		f, err := open()
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		tw.Close()
		gz.Close()
		return fmt.Errorf("failed to pack tar: %w", err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize gzip stream: %w", err)
	}
	return nil
}

// safeJoin resolves an archive entry name under destDir, rejecting names
// that would escape it.
func safeJoin(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: archive entry %q escapes extraction directory", shared.ErrInvalidSnapshot, name)
	}
	return filepath.Join(destDir, cleaned), nil
}

func writeEntry(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, r)
	return err
}

func unpackZip(src, destDir string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		path, err := safeJoin(destDir, entry.Name)
		if err != nil {
			return err
		}

		f, err := entry.Open()
		if err != nil {
			return fmt.Errorf("failed to read zip entry %s: %w", entry.Name, err)
		}
		if err := writeEntry(path, f, entry.Mode()); err != nil {
			f.Close()
			return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
		}
		f.Close()
	}

	return nil
}

func unpackTar(src, destDir string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open tar archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		path, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}
		if err := writeEntry(path, tr, os.FileMode(header.Mode)); err != nil {
			return fmt.Errorf("failed to extract %s: %w", header.Name, err)
		}
	}
}
