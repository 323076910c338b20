package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spotsnap/spotsnap/internal/shared"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, contents := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("ZIP"); err != nil || f != Zip {
		t.Errorf("ParseFormat(ZIP) = %v, %v", f, err)
	}
	if f, err := ParseFormat("tar"); err != nil || f != Tar {
		t.Errorf("ParseFormat(tar) = %v, %v", f, err)
	}
	if _, err := ParseFormat("rar"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestPackUnpack(t *testing.T) {
	tree := map[string]string{
		"snapshot.json":  `{"user":{"id":"alice"}}`,
		"metadata.toml":  "created_at = 2025-03-01T12:00:00Z\n",
		"images/p1.jpg":  "jpeg-bytes",
		"images/deep.db": string([]byte{0x00, 0x01, 0xff}),
	}

	for _, format := range []Format{Zip, Tar} {
		t.Run(string(format), func(t *testing.T) {
			src := t.TempDir()
			writeTree(t, src, tree)

			dest := filepath.Join(t.TempDir(), "snap"+format.Ext())
			if err := Pack(src, dest, format); err != nil {
				t.Fatalf("Pack returned error: %v", err)
			}
			if !IsArchive(dest) {
				t.Errorf("packed file %s not recognized as archive", dest)
			}

			out := t.TempDir()
			if err := Unpack(dest, out); err != nil {
				t.Fatalf("Unpack returned error: %v", err)
			}

			got := readTree(t, out)
			if len(got) != len(tree) {
				t.Fatalf("expected %d files, got %d: %v", len(tree), len(got), got)
			}
			for name, want := range tree {
				if got[name] != want {
					t.Errorf("file %s corrupted: %q != %q", name, got[name], want)
				}
			}
		})
	}
}

func TestPackRefusesExistingDestination(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"snapshot.json": "{}"})

	dest := filepath.Join(t.TempDir(), "snap.zip")
	if err := os.WriteFile(dest, []byte("occupied"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Pack(src, dest, Zip); !errors.Is(err, shared.ErrOutputExists) {
		t.Errorf("expected ErrOutputExists, got %v", err)
	}
}

func TestSafeJoin(t *testing.T) {
	if _, err := safeJoin("/dest", "../escape"); err == nil {
		t.Error("expected traversal rejection for ../escape")
	}
	if _, err := safeJoin("/dest", "/abs/path"); err == nil {
		t.Error("expected rejection for absolute entry name")
	}

	path, err := safeJoin("/dest", "images/p1.jpg")
	if err != nil {
		t.Fatalf("safeJoin returned error: %v", err)
	}
	if path != filepath.Join("/dest", "images", "p1.jpg") {
		t.Errorf("unexpected path: %s", path)
	}
}
