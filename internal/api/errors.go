package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Sentinel errors for hub responses callers branch on.
var (
	// ErrNotFound indicates the file or folder does not exist.
	ErrNotFound = errors.New("not found")

	// ErrFileAlreadyExists indicates a name collision in the target folder.
	ErrFileAlreadyExists = errors.New("file already exists")
)

// StatusError carries a non-2xx hub response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("hub returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("hub returned %d", e.StatusCode)
}

// Unwrap maps well-known status codes to sentinel errors so callers
// can use errors.Is without inspecting codes.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrFileAlreadyExists
	}
	return nil
}

// newStatusError builds a StatusError from a response, consuming a
// bounded amount of the body for the message.
func newStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}

// IsNotFound reports whether err indicates a missing file or folder.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsFileExistsError reports whether err indicates a duplicate name.
func IsFileExistsError(err error) bool {
	return errors.Is(err, ErrFileAlreadyExists)
}
