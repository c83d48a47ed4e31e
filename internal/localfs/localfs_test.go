package localfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListOrdering(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta.txt", "Alpha.txt", "beta.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"Music", "docs"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"/..", "docs", "Music", "Alpha.txt", "beta.txt", "zeta.txt"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entries[%d].Name = %q, want %q", i, entries[i].Name, name)
		}
	}
}

func TestListParentMarker(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := List(sub)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	marker := entries[0]
	if !marker.IsParent {
		t.Fatal("first entry is not the parent marker")
	}
	if !marker.IsDir {
		t.Error("parent marker should behave as a directory")
	}
	if marker.Path != dir {
		t.Errorf("marker.Path = %q, want %q", marker.Path, dir)
	}

	count := 0
	for _, e := range entries {
		if e.IsParent {
			count++
		}
	}
	if count != 1 {
		t.Errorf("parent marker appears %d times, want exactly 1", count)
	}
}

func TestListParentMarkerAtRoot(t *testing.T) {
	entries, err := List("/")
	if err != nil {
		t.Fatalf("List(/): %v", err)
	}
	if entries[0].Path != "/" {
		t.Errorf("root marker.Path = %q, want /", entries[0].Path)
	}
}

func TestListSkipsSpecialFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "real.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A dangling symlink cannot be resolved and must be skipped.
	if err := os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "dangling")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, e := range entries {
		if e.Name == "dangling" {
			t.Error("dangling symlink should be skipped")
		}
	}
}

func TestListSymlinkToDirBehavesAsDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, e := range entries {
		if e.Name == "link" {
			if !e.IsDir {
				t.Error("symlink to directory should list as a directory")
			}
			return
		}
	}
	t.Error("symlink to directory missing from listing")
}
