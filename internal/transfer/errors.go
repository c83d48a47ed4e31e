package transfer

import (
	"context"
	"errors"
	"fmt"
)

// Errors callers branch on. Cancellation and integrity failures are
// deliberately distinct from generic transport errors so the status
// line can say what actually happened.
var (
	// ErrJobActive rejects starting a second job of the same kind.
	ErrJobActive = errors.New("a transfer of this kind is already in progress")

	// ErrUploadActive and ErrDownloadActive are the per-kind forms of
	// ErrJobActive; both satisfy errors.Is against it.
	ErrUploadActive   = fmt.Errorf("upload: %w", ErrJobActive)
	ErrDownloadActive = fmt.Errorf("download: %w", ErrJobActive)

	// ErrCancelled marks a job stopped by user request.
	ErrCancelled = errors.New("cancelled")

	// ErrChecksumMismatch marks a download whose content hash did not
	// match the hub-reported checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrDestinationExists rejects downloading over an existing file.
	ErrDestinationExists = errors.New("destination file already exists")

	// ErrNotAFile rejects downloading a folder row.
	ErrNotAFile = errors.New("selection is not a downloadable file")

	// ErrMissingID rejects operating on a row with no remote identifier.
	ErrMissingID = errors.New("selection has no remote id")
)

// IsCancelled reports whether err is a user cancellation, in either
// its engine form or the raw context form bubbling out of I/O.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// classify rewrites raw context cancellation into ErrCancelled so a
// cancelled job never reports a generic transport failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	return err
}
