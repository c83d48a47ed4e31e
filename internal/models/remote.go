package models

// RemoteFile represents a file or folder record in hub storage.
type RemoteFile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Size        int64    `json:"size,omitempty"`
	IsFolder    bool     `json:"isFolder"`
	IsShortcut  bool     `json:"isShortcut,omitempty"`
	MD5Checksum string   `json:"md5Checksum,omitempty"`
	Parents     []string `json:"parents,omitempty"`
	Trashed     bool     `json:"trashed,omitempty"`
}

// FileListResponse is the response envelope for listing endpoints.
type FileListResponse struct {
	Results []RemoteFile `json:"results"`
	Next    *string      `json:"next,omitempty"`
}

// GeneratedIDs is the response from the ID pre-allocation endpoint.
type GeneratedIDs struct {
	IDs []string `json:"ids"`
}

// FolderRequest registers a new folder, optionally with a pre-assigned ID
// so parent/child linkage can be established before the folder exists.
type FolderRequest struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Parents []string `json:"parents,omitempty"`
}

// UploadRequest describes a chunked upload session to be opened.
type UploadRequest struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Parents []string `json:"parents,omitempty"`
	Size    int64    `json:"size"`
}

// UploadSession is returned when a chunked upload session is opened.
type UploadSession struct {
	UploadID string `json:"uploadId"`
}
