package storage

import (
	"context"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no blob exists at the requested path.
var ErrNotFound = errors.New("blob not found")

// ErrInvalidPath is returned for paths escaping the store namespace.
var ErrInvalidPath = errors.New("invalid blob path")

// BlobStore is the attachment blob collaborator. Paths are namespaced by
// conversation scope ("{counterpart}/{name}"); the store owns the bytes,
// messages reference them by path only.
type BlobStore interface {
	Put(ctx context.Context, path, contentType string, data []byte) error
	Get(ctx context.Context, path string) (data []byte, contentType string, err error)
	Exists(ctx context.Context, path string) (bool, error)
}

// DiskStore stores blobs on the local filesystem under a root directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore rooted at dir
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{root: dir}
}

// resolve maps a blob path to a filesystem path, rejecting traversal.
func (s *DiskStore) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes a blob
func (s *DiskStore) Put(ctx context.Context, path, contentType string, data []byte) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// Get reads a blob. Content type is derived from the extension since the
// disk backend keeps no metadata.
func (s *DiskStore) Get(ctx context.Context, path string) ([]byte, string, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(full))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// Exists checks whether a blob is present
func (s *DiskStore) Exists(ctx context.Context, path string) (bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
