package transfer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/drivenav/drivenav/internal/fileplan"
	"github.com/drivenav/drivenav/internal/models"
	"github.com/drivenav/drivenav/internal/streamio"
)

// runUpload sends the local path into the remote folder parentID.
// Files upload directly; directories are planned first so every folder
// and file carries a pre-assigned identifier, then created and
// uploaded in parent-before-child order. A failed or cancelled
// directory upload leaves already-created remote entries in place.
// The path is resolved through symlinks, matching how the picker
// presented it: a link to a file sizes and streams the target.
func (e *Engine) runUpload(job *Job, path, parentID string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("inspecting %q: %w", path, err)
	}
	if info.IsDir() {
		return e.uploadDirectory(job, path, parentID)
	}
	return e.uploadSingleFile(job, path, info.Size(), parentID)
}

func (e *Engine) uploadSingleFile(job *Job, path string, size int64, parentID string) error {
	name := filepath.Base(path)
	job.publish(Snapshot{
		CurrentFile: name,
		TotalBytes:  size,
		TotalFiles:  1,
	})

	req := models.UploadRequest{Name: name, Size: size}
	if parentID != "" {
		req.Parents = []string{parentID}
	}
	base := Snapshot{CurrentFile: name, TotalBytes: size, TotalFiles: 1}
	if err := e.uploadContents(job, path, base, req); err != nil {
		return err
	}

	job.publish(Snapshot{
		CurrentFile:  name,
		CurrentBytes: size,
		TotalBytes:   size,
		DoneFiles:    1,
		TotalFiles:   1,
	})
	return nil
}

func (e *Engine) uploadDirectory(job *Job, dir, parentID string) error {
	plan, err := fileplan.Build(job.ctx, dir, NewIDAllocator(e.hub))
	if err != nil {
		return fmt.Errorf("planning directory upload: %w", err)
	}

	job.publish(Snapshot{
		TotalBytes: plan.TotalBytes,
		TotalFiles: plan.FileCount,
	})

	done := 0
	for _, folder := range plan.Folders {
		if err := job.ctx.Err(); err != nil {
			return err
		}

		req := models.FolderRequest{ID: folder.ID, Name: folder.Name}
		switch {
		case folder.Parent != nil:
			req.Parents = []string{folder.Parent.ID}
		case parentID != "":
			req.Parents = []string{parentID}
		}
		if _, err := e.hub.CreateFolder(job.ctx, req); err != nil {
			return fmt.Errorf("creating folder %q: %w", folder.Name, err)
		}

		for _, file := range folder.Files {
			if err := job.ctx.Err(); err != nil {
				return err
			}
			job.publish(Snapshot{
				CurrentFile: file.RelPath,
				TotalBytes:  plan.TotalBytes,
				DoneFiles:   done,
				TotalFiles:  plan.FileCount,
			})

			req := models.UploadRequest{
				ID:      file.ID,
				Name:    file.Name,
				Parents: []string{folder.ID},
				Size:    file.Size,
			}
			base := Snapshot{
				CurrentFile: file.RelPath,
				TotalBytes:  plan.TotalBytes,
				DoneFiles:   done,
				TotalFiles:  plan.FileCount,
			}
			if err := e.uploadContents(job, file.Path, base, req); err != nil {
				return err
			}

			done++
			job.publish(Snapshot{
				CurrentFile:  file.RelPath,
				CurrentBytes: file.Size,
				TotalBytes:   plan.TotalBytes,
				DoneFiles:    done,
				TotalFiles:   plan.FileCount,
			})
		}
	}
	return nil
}

// uploadContents opens the file and streams it through a progress
// reader so cancellation takes effect mid-file, not just between
// files. base carries the per-file snapshot fields; only CurrentBytes
// changes as the stream advances.
func (e *Engine) uploadContents(job *Job, path string, base Snapshot, req models.UploadRequest) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	reader := streamio.NewProgressReader(job.ctx, f, func(pos int64) {
		s := base
		s.CurrentBytes = pos
		job.publish(s)
	})

	if _, err := e.hub.Upload(job.ctx, reader, req); err != nil {
		return fmt.Errorf("uploading %q: %w", base.CurrentFile, err)
	}
	return nil
}
