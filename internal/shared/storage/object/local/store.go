package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hospup-backend/internal/shared/storage/object"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir    string
	publicBase string
}

// New creates a new local object store rooted at baseDir. publicBase, when
// set, is prepended to storage keys by URLFor so callers get servable URLs.
func New(baseDir, publicBase string) object.ObjectStore {
	return &Store{baseDir: baseDir, publicBase: strings.TrimRight(publicBase, "/")}
}

// SaveWithKey writes the reader to disk at a specific storage key, replacing
// any previous object at that key.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	clean := filepath.Clean(storageKey)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return 0, fmt.Errorf("invalid storage key")
	}

	fullPath := filepath.Join(s.baseDir, clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}
	_ = contentType
	return written, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean := filepath.Clean(storageKey)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid storage key")
	}

	fullPath := filepath.Join(s.baseDir, clean)
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// URLFor maps a storage key to a servable URL, or a file path when no
// public base is configured.
func (s *Store) URLFor(storageKey string) string {
	key := strings.TrimLeft(filepath.ToSlash(storageKey), "/")
	if s.publicBase == "" {
		return filepath.Join(s.baseDir, filepath.FromSlash(key))
	}
	return s.publicBase + "/" + key
}

var _ object.ObjectStore = (*Store)(nil)
