package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalRoute is the URL path prefix under which local documents are served.
const LocalRoute = "/documents"

// LocalUploader writes documents below a directory served by the API itself.
type LocalUploader struct {
	root    string
	folder  string
	baseURL string
}

// NewLocalUploader creates the storage directory if needed.
func NewLocalUploader(root, folder, publicBaseURL string) (*LocalUploader, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage: local root directory is required")
	}
	folder = strings.Trim(folder, "/")
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(folder)), 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create %s: %w", root, err)
	}
	return &LocalUploader{
		root:    root,
		folder:  folder,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Root is the directory served at LocalRoute.
func (u *LocalUploader) Root() string {
	return u.root
}

// Upload writes to a temporary file and renames it into place so readers
// never observe a partially written document.
func (u *LocalUploader) Upload(ctx context.Context, objectID string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if objectID == "" || strings.ContainsAny(objectID, `/\`) || objectID == ".." {
		return "", fmt.Errorf("storage: invalid object id %q", objectID)
	}

	dir := filepath.Join(u.root, filepath.FromSlash(u.folder))
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("storage: failed to write document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("storage: failed to sync document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: failed to close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, objectID)); err != nil {
		return "", fmt.Errorf("storage: failed to store document: %w", err)
	}

	return u.baseURL + path.Join(LocalRoute, u.folder, url.PathEscape(objectID)), nil
}
