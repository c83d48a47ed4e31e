// Package api implements the hub storage API client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/drivenav/drivenav/internal/config"
	"github.com/drivenav/drivenav/internal/httpx"
	"github.com/drivenav/drivenav/internal/logging"
	"github.com/drivenav/drivenav/internal/models"
)

// retryLogger adapts the retryablehttp leveled logger to zerolog.
// Info and debug chatter is dropped; only retry-worthy conditions are
// interesting.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// Client is the hub API client. All methods are safe for concurrent
// use; the client is constructed once at bootstrap and injected into
// every component that talks to the hub.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	chunkSize  int64
	logger     *logging.Logger
}

// NewClient creates a hub client from configuration, wrapping the base
// HTTP client with retry logic for transient failures.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	baseClient, err := httpx.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = baseClient
	retryClient.RetryMax = cfg.Transfer.MaxRetries
	retryClient.RetryWaitMin = time.Duration(cfg.Transfer.RetryWaitMinSeconds) * time.Second
	retryClient.RetryWaitMax = time.Duration(cfg.Transfer.RetryWaitMaxSeconds) * time.Second
	retryClient.Logger = &retryLogger{logger: logger}

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(cfg.Hub.URL, "/"),
		apiKey:     cfg.Hub.APIKey,
		chunkSize:  cfg.ChunkSizeBytes(),
		logger:     logger,
	}, nil
}

// doRequest performs an authenticated request with a JSON body and
// returns the raw response. The caller owns the response body.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// doJSON performs a request and decodes a JSON response into out.
// Non-2xx responses are converted to classified errors.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ListFolder returns the children of folderID, or the non-trashed root
// contents when folderID is empty.
func (c *Client) ListFolder(ctx context.Context, folderID string) ([]models.RemoteFile, error) {
	query := url.Values{}
	if folderID == "" {
		query.Set("root", "true")
	} else {
		query.Set("parent", folderID)
	}

	var list models.FileListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v2/files?"+query.Encode(), nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list folder: %w", err)
	}
	return list.Results, nil
}

// GetFile fetches a single file or folder record by ID.
func (c *Client) GetFile(ctx context.Context, fileID string) (*models.RemoteFile, error) {
	var file models.RemoteFile
	if err := c.doJSON(ctx, http.MethodGet, "/api/v2/files/"+url.PathEscape(fileID), nil, &file); err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}
	return &file, nil
}

// Delete removes a file or folder. For folders, recursive controls
// whether the hub deletes contained items.
func (c *Client) Delete(ctx context.Context, fileID string, recursive bool) error {
	path := "/api/v2/files/" + url.PathEscape(fileID) + "?recursive=" + strconv.FormatBool(recursive)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", fileID, err)
	}
	return nil
}

// OpenReadStream opens the content stream for a file. The caller must
// close the returned reader.
func (c *Client) OpenReadStream(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v2/files/"+url.PathEscape(fileID)+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream for %s: %w", fileID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, newStatusError(resp)
	}
	return resp.Body, nil
}

// CreateFolder registers a folder, honoring a pre-assigned ID when
// req.ID is set.
func (c *Client) CreateFolder(ctx context.Context, req models.FolderRequest) (*models.RemoteFile, error) {
	var folder models.RemoteFile
	if err := c.doJSON(ctx, http.MethodPost, "/api/v2/folders", req, &folder); err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", req.Name, err)
	}
	return &folder, nil
}

// GenerateIDs pre-allocates count remote identifiers. Pre-assigned IDs
// let an upload plan wire parent/child folder linkage before any
// folder exists remotely.
func (c *Client) GenerateIDs(ctx context.Context, count int) ([]string, error) {
	var generated models.GeneratedIDs
	path := "/api/v2/files/ids?count=" + strconv.Itoa(count)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &generated); err != nil {
		return nil, fmt.Errorf("failed to generate ids: %w", err)
	}
	if len(generated.IDs) < count {
		return nil, fmt.Errorf("hub returned %d ids, wanted %d", len(generated.IDs), count)
	}
	return generated.IDs, nil
}
