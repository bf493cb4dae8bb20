package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"lms/config"

	"github.com/google/uuid"
)

// Object identifies an uploaded file on the media host.
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Store is a remote (or local) media host.
type Store interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (Object, error)
	// Delete removes key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// KeyFor returns the object key of url when url is hosted by this store.
	KeyFor(url string) (string, bool)
}

var ErrInvalidKey = errors.New("storage: invalid object key")

// Media is the store used by the controllers.
var Media Store

// NewFromConfig builds the store named by MEDIA_DRIVER.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.MediaDriver {
	case "host":
		return NewHostStore(cfg.MediaHostURL, cfg.MediaHostAPIKey, cfg.MediaPublicBaseURL)
	case "gcs":
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile, cfg.MediaPublicBaseURL)
	case "disk", "":
		return NewDiskStore(cfg.MediaDiskDir, cfg.MediaPublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported MEDIA_DRIVER %q", cfg.MediaDriver)
	}
}

// NewKey returns a unique key under prefix that keeps the extension of filename.
func NewKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return strings.Trim(prefix, "/") + "/" + uuid.NewString() + ext
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// keyUnder strips base from url, returning the remaining object key.
func keyUnder(base, url string) (string, bool) {
	base = strings.TrimRight(base, "/")
	if base == "" || !strings.HasPrefix(url, base+"/") {
		return "", false
	}
	key := strings.TrimPrefix(url, base+"/")
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if !validKey(key) {
		return "", false
	}
	return key, true
}
