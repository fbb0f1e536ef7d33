// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when the bucket or object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectMeta describes a stored object.
type ObjectMeta struct {
	Bucket       string    `json:"bucket"`
	Object       string    `json:"object"`
	Size         int64     `json:"size"` // -1 when unknown
	LastModified time.Time `json:"lastModified"`
	ContentType  string    `json:"contentType,omitempty"`
}

// ObjectReader is the object-storage collaborator.
type ObjectReader interface {
	Stat(ctx context.Context, bucket, object string) (ObjectMeta, error)
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// FileObjectReader serves objects from a local directory. Buckets are
// sub-directories of the root.
type FileObjectReader struct {
	root string
}

// NewFileObjectReader returns a reader rooted at dir.
func NewFileObjectReader(dir string) *FileObjectReader {
	return &FileObjectReader{root: filepath.Clean(dir)}
}

func (r *FileObjectReader) path(bucket, object string) (string, error) {
	p := filepath.Join(r.root, bucket, object)
	rel, err := filepath.Rel(r.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("object path %q escapes root", filepath.Join(bucket, object))
	}
	return p, nil
}

// Stat implements ObjectReader.
func (r *FileObjectReader) Stat(_ context.Context, bucket, object string) (ObjectMeta, error) {
	p, err := r.path(bucket, object)
	if err != nil {
		return ObjectMeta{}, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ObjectMeta{}, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, object)
		}
		return ObjectMeta{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if fi.IsDir() {
		return ObjectMeta{}, fmt.Errorf("%s/%s is a directory", bucket, object)
	}
	return ObjectMeta{
		Bucket:       bucket,
		Object:       object,
		Size:         fi.Size(),
		LastModified: fi.ModTime(),
	}, nil
}

// Open implements ObjectReader.
func (r *FileObjectReader) Open(_ context.Context, bucket, object string) (io.ReadCloser, error) {
	p, err := r.path(bucket, object)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, object)
		}
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

// HTTPObjectReader reads public objects at <base>/<bucket>/<object>.
type HTTPObjectReader struct {
	baseURL string
	client  *http.Client
}

// NewHTTPObjectReader returns a reader for baseURL. A nil client uses one
// without an overall timeout, since object bodies are streamed.
func NewHTTPObjectReader(baseURL string, client *http.Client) *HTTPObjectReader {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPObjectReader{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (r *HTTPObjectReader) objectURL(bucket, object string) (string, error) {
	u, err := url.JoinPath(r.baseURL, bucket, object)
	if err != nil {
		return "", fmt.Errorf("build object url: %w", err)
	}
	return u, nil
}

// Stat implements ObjectReader with a HEAD request.
func (r *HTTPObjectReader) Stat(ctx context.Context, bucket, object string) (ObjectMeta, error) {
	u, err := r.objectURL(bucket, object)
	if err != nil {
		return ObjectMeta{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, http.NoBody)
	if err != nil {
		return ObjectMeta{}, fmt.Errorf("create request failed: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return ObjectMeta{}, fmt.Errorf("stat %s: %w", u, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, bucket, object); err != nil {
		return ObjectMeta{}, err
	}

	meta := ObjectMeta{
		Bucket:      bucket,
		Object:      object,
		Size:        -1,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil {
		meta.Size = n
	}
	if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		meta.LastModified = t
	}
	return meta, nil
}

// Open implements ObjectReader with a streaming GET request.
func (r *HTTPObjectReader) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	u, err := r.objectURL(bucket, object)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", u, err)
	}
	if err := statusError(resp, bucket, object); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func statusError(resp *http.Response, bucket, object string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, object)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("object %s/%s: unexpected status %d", bucket, object, resp.StatusCode)
	}
	return nil
}
