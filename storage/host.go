package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HostStore talks to an HTTP media host:
//
//	POST /upload  multipart(file, key)  -> {"key": "...", "url": "..."}
//	POST /delete  {"keys": ["..."]}     -> 200
type HostStore struct {
	client     *resty.Client
	publicBase string
}

func NewHostStore(baseURL, apiKey, publicBase string) (*HostStore, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("MEDIA_HOST_URL is required for the host media driver")
	}
	if publicBase == "" || strings.HasPrefix(publicBase, "/") {
		publicBase = baseURL + "/f"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("X-Api-Key", apiKey).
		SetTimeout(2 * time.Minute)

	return &HostStore{client: client, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

func (s *HostStore) Upload(ctx context.Context, key, contentType string, r io.Reader) (Object, error) {
	if !validKey(key) {
		return Object{}, ErrInvalidKey
	}

	var out Object
	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", key[strings.LastIndex(key, "/")+1:], r).
		SetFormData(map[string]string{"key": key, "contentType": contentType}).
		SetResult(&out).
		Post("/upload")
	if err != nil {
		return Object{}, fmt.Errorf("media host upload: %w", err)
	}
	if resp.IsError() {
		return Object{}, fmt.Errorf("media host upload: status %d: %s", resp.StatusCode(), resp.String())
	}

	if out.Key == "" {
		out.Key = key
	}
	if out.URL == "" {
		out.URL = s.publicBase + "/" + out.Key
	}
	return out, nil
}

func (s *HostStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string][]string{"keys": {key}}).
		Post("/delete")
	if err != nil {
		return fmt.Errorf("media host delete: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil
	}
	if resp.IsError() {
		return fmt.Errorf("media host delete: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *HostStore) KeyFor(url string) (string, bool) {
	return keyUnder(s.publicBase, url)
}
