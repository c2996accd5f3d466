// Package storage keeps encrypted document blobs on the local filesystem.
//
// Blobs are opaque to this package; encryption happens before Put and
// decryption after Get. Each organization has its own directory.
//
// Import Path: greenledger.io/greenledger/internal/storage
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrBlobNotFound is returned when no blob exists for a key.
var ErrBlobNotFound = errors.New("blob not found")

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("invalid blob key")

const blobExt = ".enc"

// BlobStore persists opaque document blobs.
type BlobStore interface {
	Put(ctx context.Context, orgID int64, blob []byte) (key string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// FileStore stores blobs as files under a root directory, at
// org_<orgID>/<uuid>.enc. Keys are relative to the root.
type FileStore struct {
	root string
}

// NewFileStore returns a FileStore rooted at dir. The directory is created on first Put.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: filepath.Clean(dir)}
}

// Root returns the store root directory.
func (s *FileStore) Root() string {
	return s.root
}

// Put writes blob under a new key for orgID.
// The file appears atomically: readers never see a partial blob.
func (s *FileStore) Put(ctx context.Context, orgID int64, blob []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	orgDir := "org_" + strconv.FormatInt(orgID, 10)
	dir := filepath.Join(s.root, orgDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}

	name := uuid.NewString() + blobExt
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("sync blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		cleanup()
		return "", fmt.Errorf("publish blob: %w", err)
	}

	return orgDir + "/" + name, nil
}

// Get reads the blob stored under key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the blob stored under key. Deleting a missing blob is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// resolve maps a key to a path inside the root.
func (s *FileStore) resolve(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) || !strings.HasSuffix(key, blobExt) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return path, nil
}
