// Package seaweedfs provides a SeaweedFS filer-backed blob storage backend.
package seaweedfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gezibash/arc-bench/internal/blobstore/physical"
	"github.com/gezibash/arc-bench/internal/storage"
)

const (
	KeyFilerURL     = "filer_url"
	KeyPrefix       = "prefix"
	KeyTimeout      = "timeout"
	KeyMaxIdleConns = "max_idle_conns"
)

func init() {
	physical.Register("seaweedfs", NewFactory, Defaults)
}

// Defaults returns the default configuration for the SeaweedFS backend.
func Defaults() storage.Options {
	return storage.Options{
		KeyPrefix:       "/arc-bench",
		KeyTimeout:      "30s",
		KeyMaxIdleConns: "100",
	}
}

// NewFactory creates a new SeaweedFS backend from its options.
func NewFactory(_ context.Context, opts storage.Options) (physical.Backend, error) {
	filerURL := opts.String(KeyFilerURL, "")
	if filerURL == "" {
		return nil, storage.NewConfigError("seaweedfs", KeyFilerURL, "cannot be empty")
	}
	filerURL = strings.TrimRight(filerURL, "/")

	prefix := opts.String(KeyPrefix, "/arc-bench")
	if !strings.HasPrefix(prefix, "/") {
		return nil, &storage.ConfigError{Backend: "seaweedfs", Field: KeyPrefix, Value: prefix, Message: "must start with /"}
	}
	prefix = strings.TrimRight(prefix, "/")

	timeout, err := opts.Duration(KeyTimeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	maxIdle, err := opts.Int(KeyMaxIdleConns, 100)
	if err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        maxIdle,
			MaxIdleConnsPerHost: max(maxIdle/10, 1),
		},
	}

	slog.Debug("seaweedfs blobstore initialized", "filer_url", filerURL, "prefix", prefix, "timeout", timeout)

	return &Backend{
		filerURL: filerURL,
		prefix:   prefix,
		client:   client,
	}, nil
}

// Backend is a SeaweedFS filer implementation of physical.Backend.
type Backend struct {
	filerURL string
	prefix   string
	client   *http.Client
	closed   atomic.Bool
}

func (b *Backend) blobURL(key string) (string, error) {
	if err := physical.ValidateKey(key); err != nil {
		return "", err
	}
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return b.filerURL + b.prefix + "/" + strings.Join(segs, "/"), nil
}

func (b *Backend) do(ctx context.Context, method, key string, body []byte) (*http.Response, error) {
	u, err := b.blobURL(key)
	if err != nil {
		return nil, err
	}
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	return b.client.Do(req)
}

// Put stores data under key.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}
	if data == nil {
		data = []byte{}
	}

	resp, err := b.do(ctx, http.MethodPut, key, data)
	if err != nil {
		return fmt.Errorf("seaweedfs put: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("seaweedfs put: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Get retrieves the blob stored under key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}

	resp, err := b.do(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, fmt.Errorf("seaweedfs get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, physical.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("seaweedfs get: unexpected status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("seaweedfs get: %w", err)
	}
	return data, nil
}

// Exists checks if a blob exists.
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	if b.closed.Load() {
		return false, physical.ErrClosed
	}

	resp, err := b.do(ctx, http.MethodHead, key, nil)
	if err != nil {
		return false, fmt.Errorf("seaweedfs exists: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("seaweedfs exists: unexpected status %d", resp.StatusCode)
	}
}

// Delete removes a blob by key. A 404 is not an error.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}

	resp, err := b.do(ctx, http.MethodDelete, key, nil)
	if err != nil {
		return fmt.Errorf("seaweedfs delete: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("seaweedfs delete: unexpected status %d", resp.StatusCode)
	}
}

// Stats reports the backend type only.
func (b *Backend) Stats(_ context.Context) (*physical.Stats, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}
	return &physical.Stats{BackendType: "seaweedfs"}, nil
}

// Close closes idle connections.
func (b *Backend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	b.client.CloseIdleConnections()
	return nil
}
