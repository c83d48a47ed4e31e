package transfer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/drivenav/drivenav/internal/models"
	"github.com/drivenav/drivenav/internal/streamio"
)

// downloadCopyChunk bounds how many bytes are copied between
// cancellation checks while a download drains.
const downloadCopyChunk = 32 * 1024

// runDownload streams item into destDir via a temporary ".incomplete"
// file, verifying the hub-reported md5 before renaming into place. Any
// failure removes the temporary file; the final name only ever appears
// on success.
func (e *Engine) runDownload(job *Job, item models.RemoteFile, destDir string) error {
	ctx := job.ctx

	rec, err := e.hub.GetFile(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("fetching file record: %w", err)
	}
	if rec.IsFolder || rec.IsShortcut {
		return ErrNotAFile
	}

	job.publish(Snapshot{
		CurrentFile: rec.Name,
		TotalBytes:  rec.Size,
		TotalFiles:  1,
	})

	if destDir == "" {
		destDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
	}
	info, err := os.Stat(destDir)
	if err != nil {
		return fmt.Errorf("destination directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination %q is not a directory", destDir)
	}

	final := filepath.Join(destDir, rec.Name)
	if _, err := os.Stat(final); err == nil {
		return fmt.Errorf("%q: %w", final, ErrDestinationExists)
	}

	stream, err := e.hub.OpenReadStream(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("opening download stream: %w", err)
	}
	defer stream.Close()

	tmp := final + ".incomplete"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %q: %w", tmp, err)
	}

	sum, written, err := e.drainDownload(job, stream, out, rec)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing %q: %w", tmp, cerr)
	}
	if err == nil && rec.MD5Checksum != "" && sum != rec.MD5Checksum {
		err = fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, rec.MD5Checksum, sum)
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("promoting %q: %w", tmp, err)
	}

	job.publish(Snapshot{
		CurrentFile:  rec.Name,
		CurrentBytes: written,
		TotalBytes:   rec.Size,
		DoneFiles:    1,
		TotalFiles:   1,
	})
	return nil
}

// drainDownload copies the stream into out through the checksumming
// writer, publishing progress and checking cancellation every chunk.
func (e *Engine) drainDownload(job *Job, stream io.Reader, out io.Writer, rec *models.RemoteFile) (sum string, written int64, err error) {
	hashed := streamio.NewMD5Writer(out)
	buf := make([]byte, downloadCopyChunk)
	for {
		if err := job.ctx.Err(); err != nil {
			return "", written, err
		}
		n, rerr := stream.Read(buf)
		if n > 0 {
			if _, werr := hashed.Write(buf[:n]); werr != nil {
				return "", written, fmt.Errorf("writing download: %w", werr)
			}
			written += int64(n)
			job.publish(Snapshot{
				CurrentFile:  rec.Name,
				CurrentBytes: written,
				TotalBytes:   rec.Size,
				TotalFiles:   1,
			})
		}
		if rerr == io.EOF {
			return hashed.Sum(), written, nil
		}
		if rerr != nil {
			return "", written, fmt.Errorf("reading download stream: %w", rerr)
		}
	}
}
