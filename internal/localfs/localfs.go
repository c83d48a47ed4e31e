// Package localfs provides local filesystem listing for the upload
// picker and tree enumeration for upload planning.
package localfs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry represents a row in the local file picker.
type Entry struct {
	Name     string // Base name, or "/.." for the parent marker
	Path     string // Absolute path
	IsDir    bool
	IsParent bool // Synthetic "go up" row
	Size     int64
}

// List returns the picker rows for dir: a parent marker first, then
// directories, then regular files, each group in case-insensitive name
// order. Entries that are neither directories nor regular files
// (sockets, devices, dangling symlinks) are skipped.
func List(dir string) ([]Entry, error) {
	entries := []Entry{parentEntry(dir)}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	for _, dirent := range dirents {
		path := filepath.Join(dir, dirent.Name())
		// Resolve through symlinks the way the picker user expects:
		// a link to a directory behaves as a directory.
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, Entry{
			Name:  dirent.Name(),
			Path:  path,
			IsDir: info.IsDir(),
			Size:  info.Size(),
		})
	}

	SortEntries(entries)
	return entries, nil
}

// SortEntries orders rows parent-marker first, then directories before
// files, then case-insensitive name ascending. The sort is stable so
// equal keys keep their original order.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsParent != b.IsParent {
			return a.IsParent
		}
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

// parentEntry builds the "go up" row for dir. At the filesystem root
// the marker points back at the root itself, which makes ascending a
// no-op rather than an error.
func parentEntry(dir string) Entry {
	parent := filepath.Dir(dir)
	return Entry{
		Name:     "/..",
		Path:     parent,
		IsDir:    true,
		IsParent: true,
	}
}
