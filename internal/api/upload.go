package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/drivenav/drivenav/internal/models"
)

// Upload sends content to the hub through the chunked upload endpoints
// and returns the resulting file record.
//
// The flow is open-session, PUT chunks at increasing offsets, complete.
// Individual chunk PUTs ride on the retrying HTTP client, so a
// transient failure is retried with the same bytes (chunks are
// buffered, which keeps the request body rewindable). The core treats
// the whole upload as atomic-or-failed: any terminal error abandons
// the session.
//
// content must deliver exactly req.Size bytes. Cancellation surfaces
// through ctx and through the reader itself when the caller wraps it
// with a cancellation-aware reader.
func (c *Client) Upload(ctx context.Context, content io.ReadSeeker, req models.UploadRequest) (*models.RemoteFile, error) {
	var session models.UploadSession
	if err := c.doJSON(ctx, http.MethodPost, "/api/v2/uploads", req, &session); err != nil {
		return nil, fmt.Errorf("failed to open upload session: %w", err)
	}

	buf := make([]byte, c.chunkSize)
	var offset int64

	for offset < req.Size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := io.ReadFull(content, buf)
		if err == io.EOF {
			break
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("failed to read upload content: %w", err)
		}
		if n == 0 {
			break
		}

		if err := c.putChunk(ctx, session.UploadID, offset, buf[:n]); err != nil {
			return nil, err
		}
		offset += int64(n)
	}

	var file models.RemoteFile
	completePath := "/api/v2/uploads/" + url.PathEscape(session.UploadID) + "/complete"
	if err := c.doJSON(ctx, http.MethodPost, completePath, nil, &file); err != nil {
		return nil, fmt.Errorf("failed to complete upload: %w", err)
	}
	return &file, nil
}

// putChunk uploads one chunk at the given offset.
func (c *Client) putChunk(ctx context.Context, uploadID string, offset int64, chunk []byte) error {
	path := "/api/v2/uploads/" + url.PathEscape(uploadID) + "?offset=" + strconv.FormatInt(offset, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(chunk))
	if err != nil {
		return fmt.Errorf("failed to create chunk request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(chunk))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chunk upload at offset %d failed: %w", offset, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chunk upload at offset %d: %w", offset, newStatusError(resp))
	}
	return nil
}
