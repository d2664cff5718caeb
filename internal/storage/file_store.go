// Package storage keeps uploaded profile images on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore persists and removes uploaded files by name
type FileStore interface {
	// Save writes src under a fresh unique name keeping ext, and returns that name
	Save(src io.Reader, ext string) (string, error)
	// Remove deletes name; a missing file is not an error
	Remove(name string) error
}

type localFileStore struct {
	dir string
}

// NewLocalFileStore stores files directly under dir, creating it if needed
func NewLocalFileStore(dir string) (FileStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &localFileStore{dir: dir}, nil
}

func (s *localFileStore) Save(src io.Reader, ext string) (string, error) {
	name := uuid.NewString() + strings.ToLower(ext)

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file on server: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return name, nil
}

func (s *localFileStore) Remove(name string) error {
	// Only bare names are accepted so a stored value can never point outside dir
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid file name %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
