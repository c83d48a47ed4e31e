package transfer

import (
	"sync"

	"github.com/drivenav/drivenav/internal/logging"
	"github.com/drivenav/drivenav/internal/models"
)

// Engine owns the two transfer slots: at most one upload and one
// download run concurrently. Start methods validate synchronously and
// spawn a worker goroutine; Reconcile is the only place a finished job
// is observed and its slot cleared.
type Engine struct {
	hub    Hub
	logger *logging.Logger

	mu       sync.Mutex
	upload   *Job
	download *Job
}

// Result reports one job observed finished during Reconcile.
type Result struct {
	Kind Kind
	Err  error
}

// NewEngine creates an engine over hub.
func NewEngine(hub Hub, logger *logging.Logger) *Engine {
	return &Engine{hub: hub, logger: logger}
}

// StartDownload begins downloading item into destDir ("" means the
// current working directory). It rejects synchronously when a download
// is already active, the selection is a folder, or it has no remote
// identifier; all other failures surface through the job itself.
func (e *Engine) StartDownload(item models.RemoteFile, destDir string) error {
	if item.IsFolder {
		return ErrNotAFile
	}
	if item.ID == "" {
		return ErrMissingID
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.download != nil {
		return ErrDownloadActive
	}

	job := newJob(KindDownload)
	e.download = job
	e.logger.Info().Str("file_id", item.ID).Str("name", item.Name).Msg("download started")

	go func() {
		err := e.runDownload(job, item, destDir)
		if err != nil {
			e.logger.Error().Err(err).Str("file_id", item.ID).Msg("download finished with error")
		} else {
			e.logger.Info().Str("file_id", item.ID).Msg("download finished")
		}
		job.finish(err)
	}()
	return nil
}

// StartUpload begins uploading the local path (file or directory) into
// the remote folder parentID ("" means the hub root). Only the
// single-slot check is synchronous.
func (e *Engine) StartUpload(path, parentID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.upload != nil {
		return ErrUploadActive
	}

	job := newJob(KindUpload)
	e.upload = job
	e.logger.Info().Str("path", path).Str("parent_id", parentID).Msg("upload started")

	go func() {
		err := e.runUpload(job, path, parentID)
		if err != nil {
			e.logger.Error().Err(err).Str("path", path).Msg("upload finished with error")
		} else {
			e.logger.Info().Str("path", path).Msg("upload finished")
		}
		job.finish(err)
	}()
	return nil
}

// UploadJob returns the active upload job, or nil.
func (e *Engine) UploadJob() *Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.upload
}

// DownloadJob returns the active download job, or nil.
func (e *Engine) DownloadJob() *Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.download
}

// Active reports whether any job is still running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.upload != nil || e.download != nil
}

// CancelAll signals cancellation to every active job without waiting
// for completion; the jobs drain through Reconcile as usual.
func (e *Engine) CancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.upload != nil {
		e.upload.Cancel()
	}
	if e.download != nil {
		e.download.Cancel()
	}
}

// Reconcile observes finished jobs, clears their slots, and returns
// one Result per job that completed since the last call. It never
// blocks; callers run it every tick.
func (e *Engine) Reconcile() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var results []Result
	if e.upload != nil {
		select {
		case <-e.upload.Done():
			results = append(results, Result{Kind: KindUpload, Err: e.upload.Err()})
			e.upload = nil
		default:
		}
	}
	if e.download != nil {
		select {
		case <-e.download.Done():
			results = append(results, Result{Kind: KindDownload, Err: e.download.Err()})
			e.download = nil
		default:
		}
	}
	return results
}
