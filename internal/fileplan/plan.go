// Package fileplan converts a local directory tree into an ordered
// upload plan with pre-assigned remote identifiers.
package fileplan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IDSource allocates remote-style identifiers without committing
// anything remotely. Pre-assigning IDs lets the plan wire parent/child
// folder linkage before any network call creates a folder.
type IDSource interface {
	NextID(ctx context.Context) (string, error)
}

// File is one regular file to upload.
type File struct {
	ID      string // Pre-assigned remote ID
	Name    string
	Path    string // Absolute local path
	RelPath string // Relative to the plan root, for display
	Size    int64
}

// Folder is one directory to realize remotely. Parent is nil for the
// plan root; a folder's files are uploaded only after the folder
// itself has been created.
type Folder struct {
	ID     string // Pre-assigned remote ID
	Name   string
	Path   string
	Parent *Folder
	Files  []File
}

// Plan is the ordered set of operations for one directory upload.
// Folders holds a pre-order traversal from the root, so every folder
// appears before its descendants; realizing folders in slice order
// guarantees a parent ID is valid remotely before it is used.
type Plan struct {
	Root       *Folder
	Folders    []*Folder
	FileCount  int
	TotalBytes int64
}

// Build enumerates the tree rooted at dir and allocates an identifier
// for every folder and regular file. The root itself is resolved
// through symlinks so a linked directory can be planned; entries
// inside the tree that are symlinks or special files are excluded.
// Entries are visited in case-insensitive name order so plan output is
// deterministic regardless of readdir order.
func Build(ctx context.Context, dir string, ids IDSource) (*Plan, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	plan := &Plan{}
	root, err := plan.addFolder(ctx, abs, filepath.Base(abs), nil, ids)
	if err != nil {
		return nil, err
	}
	plan.Root = root

	if err := plan.walk(ctx, root, abs, ids); err != nil {
		return nil, err
	}
	return plan, nil
}

func (p *Plan) addFolder(ctx context.Context, path, name string, parent *Folder, ids IDSource) (*Folder, error) {
	id, err := ids.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate folder id: %w", err)
	}
	folder := &Folder{ID: id, Name: name, Path: path, Parent: parent}
	p.Folders = append(p.Folders, folder)
	return folder, nil
}

// walk fills folder with its files and recurses into subdirectories.
// Appending the folder before recursing keeps p.Folders in pre-order.
func (p *Plan) walk(ctx context.Context, folder *Folder, rootPath string, ids IDSource) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirents, err := os.ReadDir(folder.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", folder.Path, err)
	}
	sort.Slice(dirents, func(i, j int) bool {
		return strings.ToLower(dirents[i].Name()) < strings.ToLower(dirents[j].Name())
	})

	for _, dirent := range dirents {
		path := filepath.Join(folder.Path, dirent.Name())

		switch {
		case dirent.IsDir():
			child, err := p.addFolder(ctx, path, dirent.Name(), folder, ids)
			if err != nil {
				return err
			}
			if err := p.walk(ctx, child, rootPath, ids); err != nil {
				return err
			}

		case dirent.Type().IsRegular():
			info, err := dirent.Info()
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", path, err)
			}
			id, err := ids.NextID(ctx)
			if err != nil {
				return fmt.Errorf("failed to allocate file id: %w", err)
			}
			rel, err := filepath.Rel(rootPath, path)
			if err != nil {
				rel = dirent.Name()
			}
			folder.Files = append(folder.Files, File{
				ID:      id,
				Name:    dirent.Name(),
				Path:    path,
				RelPath: rel,
				Size:    info.Size(),
			})
			p.FileCount++
			p.TotalBytes += info.Size()

		default:
			// Symlinks and special files are not planned.
		}
	}
	return nil
}
