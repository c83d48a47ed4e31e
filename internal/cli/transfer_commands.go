package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/drivenav/drivenav/internal/api"
	"github.com/drivenav/drivenav/internal/models"
	"github.com/drivenav/drivenav/internal/transfer"
)

// pollInterval is how often headless commands drain job progress.
const pollInterval = 100 * time.Millisecond

// newDownloadCmd creates the 'download' command: one file, no TUI.
func newDownloadCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <file-id>",
		Short: "Download a single file by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newHeadlessEngine()
			if err != nil {
				return err
			}
			fileID := args[0]

			// The record lookup runs inside the job; only the id is
			// needed to start it.
			item := models.RemoteFile{ID: fileID}
			if err := engine.StartDownload(item, outputDir); err != nil {
				return err
			}
			if err := waitForJob(cmd.Context(), engine, engine.DownloadJob()); err != nil {
				return err
			}
			fmt.Printf("Downloaded %s\n", fileID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Destination directory (default: current directory)")
	return cmd
}

// newUploadCmd creates the 'upload' command. Directories upload
// through the same planner the browser uses.
func newUploadCmd() *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newHeadlessEngine()
			if err != nil {
				return err
			}
			path := args[0]

			if err := engine.StartUpload(path, parentID); err != nil {
				return err
			}
			if err := waitForJob(cmd.Context(), engine, engine.UploadJob()); err != nil {
				return err
			}
			fmt.Printf("Uploaded %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&parentID, "parent", "p", "", "Destination folder id (default: hub root)")
	return cmd
}

func newHeadlessEngine() (*transfer.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newCLILogger(cfg)
	client, err := api.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return transfer.NewEngine(client, logger), nil
}

// waitForJob drives a progress bar off the job's snapshot channel
// until the job finishes or the command context is cancelled.
func waitForJob(ctx context.Context, engine *transfer.Engine, job *transfer.Job) error {
	if job == nil {
		return errors.New("job did not start")
	}

	var (
		bar *progressbar.ProgressBar

		// Snapshots report bytes within the in-flight file; completed
		// files are folded in as their final snapshot arrives so the
		// bar never moves backwards.
		completedBytes int64
		doneFiles      int
	)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			job.Cancel()
			<-job.Done()
			finishBar(bar)
			return job.Err()

		case <-job.Done():
			engine.Reconcile()
			finishBar(bar)
			return job.Err()

		case <-ticker.C:
			snap, ok := job.Latest()
			if !ok {
				continue
			}
			if bar == nil && snap.TotalBytes > 0 {
				bar = newTransferBar(snap.TotalBytes, snap.CurrentFile)
			}
			if snap.DoneFiles > doneFiles {
				completedBytes += snap.CurrentBytes
				doneFiles = snap.DoneFiles
				snap.CurrentBytes = 0
			}
			if bar != nil {
				if snap.CurrentFile != "" {
					bar.Describe(snap.CurrentFile)
				}
				bar.Set64(completedBytes + snap.CurrentBytes)
			}
		}
	}
}

func newTransferBar(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func finishBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}
