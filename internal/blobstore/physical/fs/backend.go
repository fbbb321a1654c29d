// Package fs provides a filesystem-backed blob storage backend. Each blob
// is one file; slash-separated keys become nested directories.
package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/gezibash/arc-bench/internal/blobstore/physical"
	"github.com/gezibash/arc-bench/internal/storage"
)

const (
	KeyPath            = "path"
	KeyDirPermissions  = "dir_permissions"
	KeyFilePermissions = "file_permissions"
	KeySync            = "sync"
)

func init() {
	physical.Register("fs", NewFactory, Defaults)
}

// Defaults returns the default configuration for the filesystem backend.
func Defaults() storage.Options {
	return storage.Options{
		KeyPath:            "~/.arc/bench/blobs-fs",
		KeyDirPermissions:  "0700",
		KeyFilePermissions: "0600",
		KeySync:            "false",
	}
}

// NewFactory creates a new filesystem backend from its options.
func NewFactory(_ context.Context, opts storage.Options) (physical.Backend, error) {
	path := opts.Path(KeyPath, "")
	if path == "" {
		return nil, storage.NewConfigError("fs", KeyPath, "cannot be empty")
	}

	dirPerms, err := parseFileMode(opts[KeyDirPermissions], 0o700)
	if err != nil {
		return nil, &storage.ConfigError{Backend: "fs", Field: KeyDirPermissions, Value: opts[KeyDirPermissions], Message: "must be an octal permission string (e.g. 0700)"}
	}
	filePerms, err := parseFileMode(opts[KeyFilePermissions], 0o600)
	if err != nil {
		return nil, &storage.ConfigError{Backend: "fs", Field: KeyFilePermissions, Value: opts[KeyFilePermissions], Message: "must be an octal permission string (e.g. 0600)"}
	}
	sync, err := opts.Bool(KeySync, false)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(path, dirPerms); err != nil {
		return nil, storage.NewConfigErrorWithCause("fs", KeyPath, "failed to create directory", err)
	}

	slog.Debug("fs blobstore initialized", "path", path, "dir_permissions", fmt.Sprintf("%04o", dirPerms), "file_permissions", fmt.Sprintf("%04o", filePerms))

	return &Backend{
		rootPath:  path,
		dirPerms:  dirPerms,
		filePerms: filePerms,
		sync:      sync,
	}, nil
}

func parseFileMode(s string, defaultMode os.FileMode) (os.FileMode, error) {
	if s == "" {
		return defaultMode, nil
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(v), nil
}

// Backend is a filesystem implementation of physical.Backend.
type Backend struct {
	rootPath  string
	dirPerms  os.FileMode
	filePerms os.FileMode
	sync      bool
	closed    atomic.Bool
}

func (b *Backend) blobPath(key string) (string, error) {
	if err := physical.ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(b.rootPath, filepath.FromSlash(key)), nil
}

// Put stores data under key using an atomic rename.
func (b *Backend) Put(_ context.Context, key string, data []byte) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}

	path, err := b.blobPath(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, b.dirPerms); err != nil {
		return fmt.Errorf("fs put: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("fs put: %w", err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	var syncErr error
	if writeErr == nil && b.sync {
		syncErr = tmp.Sync()
	}
	closeErr := tmp.Close()
	for _, err := range []error{writeErr, syncErr, closeErr} {
		if err != nil {
			_ = os.Remove(tmpName)
			return fmt.Errorf("fs put: %w", err)
		}
	}

	if err := os.Chmod(tmpName, b.filePerms); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("fs put: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("fs put: %w", err)
	}
	return nil
}

// Get retrieves the blob stored under key.
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}

	path, err := b.blobPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, physical.ErrNotFound
		}
		return nil, fmt.Errorf("fs get: %w", err)
	}
	return data, nil
}

// Exists checks if a blob exists.
func (b *Backend) Exists(_ context.Context, key string) (bool, error) {
	if b.closed.Load() {
		return false, physical.ErrClosed
	}

	path, err := b.blobPath(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("fs exists: %w", err)
	}
	return !info.IsDir(), nil
}

// Delete removes a blob by key.
func (b *Backend) Delete(_ context.Context, key string) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}

	path, err := b.blobPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("fs delete: %w", err)
	}
	return nil
}

// Stats walks the tree and sums file sizes, skipping temp files.
func (b *Backend) Stats(_ context.Context) (*physical.Stats, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}

	var totalSize int64
	err := filepath.WalkDir(b.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if name := d.Name(); len(name) > 0 && name[0] == '.' {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		totalSize += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fs stats: %w", err)
	}

	return &physical.Stats{
		SizeBytes:   totalSize,
		BackendType: "fs",
	}, nil
}

// Close marks the backend as closed.
func (b *Backend) Close() error {
	b.closed.Store(true)
	return nil
}
