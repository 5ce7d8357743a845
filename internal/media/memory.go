package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MemoryUploader is an in-memory implementation of Uploader. It stores
// metadata only and is intended for tests; URLs are derived from the
// uploaded file's base name so callers can assert on ordering.
type MemoryUploader struct {
	mu      sync.Mutex
	baseURL string
	assets  map[string]string // publicID -> URL
	calls   int
	failOn  string
}

// NewMemoryUploader creates a new in-memory uploader.
func NewMemoryUploader(baseURL string) *MemoryUploader {
	return &MemoryUploader{
		baseURL: baseURL,
		assets:  make(map[string]string),
	}
}

// FailOn makes Upload return an error for files whose base name matches name.
func (u *MemoryUploader) FailOn(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failOn = name
}

// Upload records the file's metadata and returns a synthetic URL. The local
// file must exist, mirroring a real provider reading it from disk.
func (u *MemoryUploader) Upload(_ context.Context, localPath, folder string) (*Result, error) {
	if _, err := os.Stat(localPath); err != nil {
		return nil, fmt.Errorf("failed to read local file %s: %w", localPath, err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	name := filepath.Base(localPath)
	u.calls++
	if u.failOn != "" && name == u.failOn {
		return nil, fmt.Errorf("simulated upload failure for %s", name)
	}

	publicID := folder + "/" + name
	url := fmt.Sprintf("%s/%s", u.baseURL, publicID)
	u.assets[publicID] = url

	return &Result{
		PublicID: publicID,
		URL:      url,
	}, nil
}

// Delete removes a recorded asset.
func (u *MemoryUploader) Delete(_ context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.assets[publicID]; !ok {
		return fmt.Errorf("asset not found: %s", publicID)
	}
	delete(u.assets, publicID)
	return nil
}

// UploadCalls returns how many times Upload was invoked.
func (u *MemoryUploader) UploadCalls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

// AssetCount returns how many assets are currently stored.
func (u *MemoryUploader) AssetCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.assets)
}
