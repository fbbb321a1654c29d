// Package objectstore implements byte-addressable objects on top of a blob
// backend. An object is split into fixed-size chunks; each server a store
// spans is a key prefix ("srv0/", "srv1/", ...) on the backend.
package objectstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gezibash/arc-bench/internal/blobstore/physical"
)

var (
	// ErrNotFound indicates the object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidName indicates a namespace or name that cannot be stored.
	ErrInvalidName = errors.New("invalid object name")
)

// DefaultChunkSize is the chunk size used when Config leaves it unset.
const DefaultChunkSize = 64 << 10

const metaSize = 16

// Config configures a Store.
type Config struct {
	// Servers is the number of logical object servers. Defaults to one.
	Servers int
	// ChunkSize is the size of the blobs an object is split into.
	ChunkSize int
	// Now stamps modification times. Defaults to time.Now.
	Now func() time.Time
}

// Store holds objects on a blob backend.
type Store struct {
	blobs     physical.Backend
	servers   int
	chunkSize int
	now       func() time.Time
}

// New creates a store over blobs. The store does not own blobs.
func New(blobs physical.Backend, cfg Config) *Store {
	if cfg.Servers <= 0 {
		cfg.Servers = 1
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	slog.Debug("objectstore initialized", "servers", cfg.Servers, "chunk_size", cfg.ChunkSize)
	return &Store{blobs: blobs, servers: cfg.Servers, chunkSize: cfg.ChunkSize, now: cfg.Now}
}

// Servers returns the number of logical servers.
func (s *Store) Servers() int { return s.servers }

// Status describes an object.
type Status struct {
	Size    uint64
	ModTime time.Time
}

// ServerFor returns the server a flat object lives on.
func (s *Store) ServerFor(ns, name string) int {
	h := fnv.New32a()
	h.Write([]byte(ns))
	h.Write([]byte{0})
	h.Write([]byte(name))
	return int(h.Sum32() % uint32(s.servers))
}

// ValidateName checks that ns and name are single key segments.
func ValidateName(ns, name string) error {
	for _, v := range []string{ns, name} {
		if v == "" || v == "." || v == ".." || strings.ContainsAny(v, "/\\\x00") {
			return fmt.Errorf("%w: %q/%q", ErrInvalidName, ns, name)
		}
	}
	return nil
}

// part is the byte range an object keeps on one server. Its chunks are
// numbered by local offset.
type part struct {
	s    *Store
	base string
}

func (s *Store) part(server int, ns, name string) part {
	return part{s: s, base: "srv" + strconv.Itoa(server) + "/" + ns + "/" + name}
}

func (p part) metaKey() string { return p.base + "/meta" }

func (p part) chunkKey(n int64) string {
	return p.base + "/chunk/" + strconv.FormatInt(n, 10)
}

func encodeMeta(size uint64, mtime time.Time) []byte {
	buf := make([]byte, metaSize)
	binary.BigEndian.PutUint64(buf[0:8], size)
	binary.BigEndian.PutUint64(buf[8:16], uint64(mtime.UnixNano()))
	return buf
}

func decodeMeta(buf []byte) (Status, error) {
	if len(buf) != metaSize {
		return Status{}, fmt.Errorf("corrupt object metadata: %d bytes", len(buf))
	}
	return Status{
		Size:    binary.BigEndian.Uint64(buf[0:8]),
		ModTime: time.Unix(0, int64(binary.BigEndian.Uint64(buf[8:16]))),
	}, nil
}

func (p part) create(ctx context.Context) error {
	return p.s.blobs.Put(ctx, p.metaKey(), encodeMeta(0, p.s.now()))
}

func (p part) stat(ctx context.Context) (Status, error) {
	buf, err := p.s.blobs.Get(ctx, p.metaKey())
	if errors.Is(err, physical.ErrNotFound) {
		return Status{}, ErrNotFound
	}
	if err != nil {
		return Status{}, err
	}
	return decodeMeta(buf)
}

func (p part) remove(ctx context.Context) error {
	st, err := p.stat(ctx)
	if err != nil {
		return err
	}
	cs := int64(p.s.chunkSize)
	chunks := (int64(st.Size) + cs - 1) / cs
	for n := int64(0); n < chunks; n++ {
		if err := p.s.blobs.Delete(ctx, p.chunkKey(n)); err != nil {
			return err
		}
	}
	return p.s.blobs.Delete(ctx, p.metaKey())
}

// readAt reads into buf from local offset off, stopping at the part size.
// Chunks that were never written read as zeros.
func (p part) readAt(ctx context.Context, buf []byte, off int64, size uint64) (int, error) {
	if off >= int64(size) {
		return 0, nil
	}
	buf = buf[:min(int64(len(buf)), int64(size)-off)]
	cs := int64(p.s.chunkSize)
	n := 0
	for n < len(buf) {
		pos := off + int64(n)
		idx, within := pos/cs, pos%cs
		want := min(int64(len(buf)-n), cs-within)

		chunk, err := p.s.blobs.Get(ctx, p.chunkKey(idx))
		if err != nil && !errors.Is(err, physical.ErrNotFound) {
			return n, err
		}
		dst := buf[n : n+int(want)]
		clear(dst)
		if within < int64(len(chunk)) {
			copy(dst, chunk[within:])
		}
		n += int(want)
	}
	return n, nil
}

// writeAt writes data at local offset off, rewriting every chunk it
// touches, and returns the new part size.
func (p part) writeAt(ctx context.Context, data []byte, off int64, size uint64) (uint64, error) {
	cs := int64(p.s.chunkSize)
	n := 0
	for n < len(data) {
		pos := off + int64(n)
		idx, within := pos/cs, pos%cs
		want := min(int64(len(data)-n), cs-within)

		chunk, err := p.s.blobs.Get(ctx, p.chunkKey(idx))
		if err != nil && !errors.Is(err, physical.ErrNotFound) {
			return size, err
		}
		if end := within + want; int64(len(chunk)) < end {
			grown := make([]byte, end)
			copy(grown, chunk)
			chunk = grown
		}
		copy(chunk[within:], data[n:n+int(want)])
		if err := p.s.blobs.Put(ctx, p.chunkKey(idx), chunk); err != nil {
			return size, err
		}
		n += int(want)
	}
	size = max(size, uint64(off)+uint64(len(data)))
	if err := p.s.blobs.Put(ctx, p.metaKey(), encodeMeta(size, p.s.now())); err != nil {
		return size, err
	}
	return size, nil
}
