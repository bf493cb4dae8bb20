package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps uploads in a local directory that the HTTP server exposes at publicBase.
type DiskStore struct {
	dir        string
	publicBase string
}

func NewDiskStore(dir, publicBase string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("MEDIA_DISK_DIR is required for the disk media driver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Dir is the directory to serve statically.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Upload(_ context.Context, key, _ string, r io.Reader) (Object, error) {
	if !validKey(key) {
		return Object{}, ErrInvalidKey
	}

	filePath := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return Object{}, err
	}

	dst, err := os.Create(filePath)
	if err != nil {
		return Object{}, err
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		_ = os.Remove(filePath)
		return Object{}, err
	}
	if err := dst.Close(); err != nil {
		return Object{}, err
	}

	return Object{Key: key, URL: s.publicBase + "/" + key}, nil
}

func (s *DiskStore) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *DiskStore) KeyFor(url string) (string, bool) {
	return keyUnder(s.publicBase, url)
}
