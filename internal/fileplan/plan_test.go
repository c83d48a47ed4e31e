package fileplan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// seqIDs hands out id-1, id-2, ... without any remote round trip.
type seqIDs struct{ n int }

func (s *seqIDs) NextID(ctx context.Context) (string, error) {
	s.n++
	return fmt.Sprintf("id-%d", s.n), nil
}

func mustWrite(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildCounts(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "12345")
	mustWrite(t, filepath.Join(dir, "sub", "b.txt"), "123")
	mustWrite(t, filepath.Join(dir, "sub", "deep", "c.txt"), "1")

	plan, err := Build(context.Background(), dir, &seqIDs{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if plan.FileCount != 3 {
		t.Errorf("FileCount = %d, want 3", plan.FileCount)
	}
	if plan.TotalBytes != 9 {
		t.Errorf("TotalBytes = %d, want 9", plan.TotalBytes)
	}
	if len(plan.Folders) != 3 {
		t.Errorf("len(Folders) = %d, want 3", len(plan.Folders))
	}
	if plan.Root == nil || plan.Root.Parent != nil {
		t.Error("root folder must exist with a nil parent")
	}
}

func TestBuildPreOrder(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "x", "1.txt"), "a")
	mustWrite(t, filepath.Join(dir, "x", "y", "2.txt"), "b")
	mustWrite(t, filepath.Join(dir, "z", "3.txt"), "c")

	plan, err := Build(context.Background(), dir, &seqIDs{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	index := make(map[*Folder]int, len(plan.Folders))
	for i, f := range plan.Folders {
		index[f] = i
	}
	for _, f := range plan.Folders {
		if f.Parent == nil {
			continue
		}
		pi, ok := index[f.Parent]
		if !ok {
			t.Fatalf("folder %s has a parent outside the plan", f.Name)
		}
		if pi >= index[f] {
			t.Errorf("folder %s (index %d) appears before its parent (index %d)",
				f.Name, index[f], pi)
		}
	}
}

func TestBuildAssignsUniqueIDs(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "a")
	mustWrite(t, filepath.Join(dir, "sub", "b.txt"), "b")

	plan, err := Build(context.Background(), dir, &seqIDs{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	seen := map[string]bool{}
	record := func(id string) {
		if id == "" {
			t.Error("empty pre-assigned id")
		}
		if seen[id] {
			t.Errorf("id %s assigned twice", id)
		}
		seen[id] = true
	}
	for _, f := range plan.Folders {
		record(f.ID)
		for _, file := range f.Files {
			record(file.ID)
		}
	}
}

func TestBuildExcludesSymlinks(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "real.txt"), "x")
	if err := os.Symlink(filepath.Join(dir, "real.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	plan, err := Build(context.Background(), dir, &seqIDs{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1 (symlink excluded)", plan.FileCount)
	}
}

func TestBuildResolvesRootSymlink(t *testing.T) {
	base := t.TempDir()
	real := filepath.Join(base, "real")
	mustWrite(t, filepath.Join(real, "a.txt"), "xyz")
	link := filepath.Join(base, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	plan, err := Build(context.Background(), link, &seqIDs{})
	if err != nil {
		t.Fatalf("Build on a linked root: %v", err)
	}
	if plan.FileCount != 1 || plan.TotalBytes != 3 {
		t.Errorf("FileCount=%d TotalBytes=%d, want 1 and 3", plan.FileCount, plan.TotalBytes)
	}
}

func TestBuildRejectsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	mustWrite(t, path, "x")

	if _, err := Build(context.Background(), path, &seqIDs{}); err == nil {
		t.Fatal("expected error planning a non-directory")
	}
}

func TestBuildHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Build(ctx, dir, &seqIDs{}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestBuildRelPaths(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "sub", "b.txt"), "x")

	plan, err := Build(context.Background(), dir, &seqIDs{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, f := range plan.Folders {
		for _, file := range f.Files {
			want := filepath.Join("sub", "b.txt")
			if file.RelPath != want {
				t.Errorf("RelPath = %q, want %q", file.RelPath, want)
			}
		}
	}
}
