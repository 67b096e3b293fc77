package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PhotoStore persists card photos and returns their public URL. The disk
// implementation below serves single-instance deployments; a bucket-backed
// client can replace it without touching the handlers.
type PhotoStore interface {
	Save(ctx context.Context, key string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// DiskStore writes photos under a local directory that is served statically
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the storage directory if needed
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("photo storage unavailable: cannot create %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes the photo and returns its public URL. Keys look like
// {employeeID}/{timestamp}.{ext}; path traversal in a key is rejected.
func (s *DiskStore) Save(_ context.Context, key string, data []byte) (string, error) {
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid photo key %q", key)
	}

	path := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("photo storage unavailable: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}

	return s.baseURL + "/" + filepath.ToSlash(clean), nil
}

// Delete removes a stored photo. Missing files are not an error.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid photo key %q", key)
	}
	err := os.Remove(filepath.Join(s.dir, clean))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// KeyToURL returns the public URL for a stored key
func (s *DiskStore) KeyToURL(key string) string {
	return s.baseURL + "/" + filepath.ToSlash(filepath.Clean(key))
}

// URLToPath maps one of our own public URLs back to the file on disk. Used by
// the vCard exporter to inline photo bytes. Returns false for foreign URLs.
func (s *DiskStore) URLToPath(url string) (string, bool) {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return "", false
	}
	rel := strings.TrimPrefix(url, s.baseURL+"/")
	clean := filepath.Clean(rel)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", false
	}
	return filepath.Join(s.dir, clean), true
}
