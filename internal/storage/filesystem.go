package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned for keys that would resolve outside the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// FileSystem implements Storage on a local directory tree. Keys are
// slash-separated paths relative to root, e.g. "2026/10/photo_1760700000000_ab12cd34.webp".
type FileSystem struct {
	root       string
	publicBase string
}

// NewFileSystem creates the root directory if needed and returns a FileSystem.
func NewFileSystem(root, publicBase string) (*FileSystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", root, err)
	}
	return &FileSystem{
		root:       root,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Root returns the directory uploads are written to.
func (s *FileSystem) Root() string {
	return s.root
}

// Upload writes reader to root/key through a temp file, fsync and rename,
// so readers never observe a partially written image.
func (s *FileSystem) Upload(ctx context.Context, key string, reader io.Reader, _ int64, _ string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create dir for %q: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", key, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %q: %w", key, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod %q: %w", key, err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %q: %w", key, err)
	}
	return nil
}

// Delete removes the file at key. A missing file is not an error.
func (s *FileSystem) Delete(_ context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// PublicURL returns publicBase + "/" + key, e.g. "/uploads/2026/10/photo_1760700000000_ab12cd34.webp".
func (s *FileSystem) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

func (s *FileSystem) path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
