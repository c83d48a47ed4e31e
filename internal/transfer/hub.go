// Package transfer runs uploads and downloads as cancellable
// background jobs with tick-drained progress snapshots.
package transfer

import (
	"context"
	"io"

	"github.com/drivenav/drivenav/internal/models"
)

// Hub is the remote storage surface the transfer engine needs. The
// concrete client lives in internal/api; tests substitute fakes.
type Hub interface {
	ListFolder(ctx context.Context, folderID string) ([]models.RemoteFile, error)
	GetFile(ctx context.Context, fileID string) (*models.RemoteFile, error)
	Delete(ctx context.Context, fileID string, recursive bool) error
	OpenReadStream(ctx context.Context, fileID string) (io.ReadCloser, error)
	Upload(ctx context.Context, content io.ReadSeeker, req models.UploadRequest) (*models.RemoteFile, error)
	CreateFolder(ctx context.Context, req models.FolderRequest) (*models.RemoteFile, error)
	GenerateIDs(ctx context.Context, count int) ([]string, error)
}

// idBatchSize is how many identifiers are fetched per hub round trip
// while planning a directory upload.
const idBatchSize = 100

// IDAllocator adapts Hub.GenerateIDs into the planner's one-at-a-time
// IDSource, amortizing round trips over batches.
type IDAllocator struct {
	hub Hub
	ids []string
}

// NewIDAllocator returns an allocator drawing from hub.
func NewIDAllocator(hub Hub) *IDAllocator {
	return &IDAllocator{hub: hub}
}

// NextID returns the next pre-allocated identifier, refilling from the
// hub when the batch is exhausted.
func (a *IDAllocator) NextID(ctx context.Context) (string, error) {
	if len(a.ids) == 0 {
		ids, err := a.hub.GenerateIDs(ctx, idBatchSize)
		if err != nil {
			return "", err
		}
		a.ids = ids
	}
	id := a.ids[0]
	a.ids = a.ids[1:]
	return id, nil
}
