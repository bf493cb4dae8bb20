package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrFileTooLarge     = errors.New("file is too large")
)

// File is an upload that has not reached the media host yet.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromMultipart wraps a multipart upload.
func FromMultipart(fh *multipart.FileHeader) *File {
	return &File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// Asset is either Pending (bytes still to upload) or Stored (an already hosted URL).
// The zero Asset means "not provided".
type Asset struct {
	pending *File
	url     string
}

func Pending(f *File) Asset { return Asset{pending: f} }

func Stored(url string) Asset { return Asset{url: strings.TrimSpace(url)} }

func (a Asset) IsEmpty() bool   { return a.pending == nil && a.url == "" }
func (a Asset) IsPending() bool { return a.pending != nil }
func (a Asset) URL() string     { return a.url }

// Rules limits what a pending upload may contain.
type Rules struct {
	Prefix   string
	MaxBytes int64
	Allowed  []string // mime types or "type/*"
}

// Resolve turns the asset into a hosted Object. uploaded is true when this call
// created a new remote object, which the caller owns until it is persisted.
//
// A Stored URL only carries a key when it points at owned, the object the caller
// already holds. Any other hosted URL is referenced by URL alone and is never
// deleted on the caller's behalf.
func (a Asset) Resolve(ctx context.Context, store Store, rules Rules, owned string) (obj Object, uploaded bool, err error) {
	if a.pending == nil {
		if key, ok := store.KeyFor(a.url); ok && owned != "" && key == owned {
			return Object{Key: key, URL: a.url}, false, nil
		}
		return Object{URL: a.url}, false, nil
	}

	f := a.pending
	if rules.MaxBytes > 0 && f.Size > rules.MaxBytes {
		return Object{}, false, ErrFileTooLarge
	}

	contentType, err := sniff(f)
	if err != nil {
		return Object{}, false, err
	}
	if !allowed(contentType, rules.Allowed) {
		return Object{}, false, fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType)
	}

	r, err := f.Open()
	if err != nil {
		return Object{}, false, err
	}
	defer r.Close()

	obj, err = store.Upload(ctx, NewKey(rules.Prefix, f.Name), contentType, r)
	if err != nil {
		return Object{}, false, err
	}
	return obj, true, nil
}

func sniff(f *File) (string, error) {
	r, err := f.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	// "text/plain; charset=utf-8" -> "text/plain"
	ct, _, _ := strings.Cut(mt.String(), ";")
	return ct, nil
}

func allowed(contentType string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if p == contentType {
			return true
		}
		if prefix, ok := strings.CutSuffix(p, "/*"); ok && strings.HasPrefix(contentType, prefix+"/") {
			return true
		}
	}
	return false
}
