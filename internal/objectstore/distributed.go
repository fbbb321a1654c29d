package objectstore

import (
	"context"
	"errors"
	"fmt"
)

// Distribution maps a logical offset of a distributed object to a server
// and a local offset. Blocks are assigned to servers round robin and packed
// densely on each server.
type Distribution struct {
	Servers   int
	BlockSize int64
}

// Locate returns the server holding off, the local offset there, and the
// bytes left in off's block.
func (d Distribution) Locate(off uint64) (server int, local int64, left int64) {
	bs := d.BlockSize
	block := int64(off) / bs
	within := int64(off) % bs
	server = int(block % int64(d.Servers))
	local = (block/int64(d.Servers))*bs + within
	return server, local, bs - within
}

// logicalEnd returns the logical size implied by a part of size partSize
// on server.
func (d Distribution) logicalEnd(server int, partSize uint64) uint64 {
	if partSize == 0 {
		return 0
	}
	bs := uint64(d.BlockSize)
	last := partSize - 1
	block := (last/bs)*uint64(d.Servers) + uint64(server)
	return block*bs + last%bs + 1
}

// Distribution returns a round-robin distribution over all servers.
func (s *Store) Distribution(blockSize int64) (Distribution, error) {
	if blockSize <= 0 {
		return Distribution{}, fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	return Distribution{Servers: s.servers, BlockSize: blockSize}, nil
}

func (s *Store) checkDistribution(d Distribution) error {
	if d.Servers != s.servers || d.BlockSize <= 0 {
		return fmt.Errorf("distribution %+v does not fit %d servers", d, s.servers)
	}
	return nil
}

// CreateDistributed creates an empty part on every server.
func (s *Store) CreateDistributed(ctx context.Context, ns, name string, d Distribution) error {
	if err := ValidateName(ns, name); err != nil {
		return err
	}
	if err := s.checkDistribution(d); err != nil {
		return err
	}
	for srv := 0; srv < s.servers; srv++ {
		if err := s.part(srv, ns, name).create(ctx); err != nil {
			return fmt.Errorf("distributed object create: %w", err)
		}
	}
	return nil
}

// DeleteDistributed removes every part. It fails with ErrNotFound only
// when no server held a part.
func (s *Store) DeleteDistributed(ctx context.Context, ns, name string, d Distribution) error {
	if err := ValidateName(ns, name); err != nil {
		return err
	}
	if err := s.checkDistribution(d); err != nil {
		return err
	}
	found := false
	for srv := 0; srv < s.servers; srv++ {
		err := s.part(srv, ns, name).remove(ctx)
		switch {
		case err == nil:
			found = true
		case errors.Is(err, ErrNotFound):
		default:
			return fmt.Errorf("distributed object delete: %w", err)
		}
	}
	if !found {
		return fmt.Errorf("distributed object delete: %w", ErrNotFound)
	}
	return nil
}

// parts returns the status of every part, in server order.
func (s *Store) parts(ctx context.Context, ns, name string) ([]Status, error) {
	out := make([]Status, s.servers)
	for srv := range out {
		st, err := s.part(srv, ns, name).stat(ctx)
		if err != nil {
			return nil, err
		}
		out[srv] = st
	}
	return out, nil
}

// StatDistributed returns the logical size computed from the part sizes
// and the latest modification time of any part.
func (s *Store) StatDistributed(ctx context.Context, ns, name string, d Distribution) (Status, error) {
	if err := ValidateName(ns, name); err != nil {
		return Status{}, err
	}
	if err := s.checkDistribution(d); err != nil {
		return Status{}, err
	}
	parts, err := s.parts(ctx, ns, name)
	if err != nil {
		return Status{}, fmt.Errorf("distributed object status: %w", err)
	}
	return d.combine(parts), nil
}

func (d Distribution) combine(parts []Status) Status {
	var st Status
	for srv, p := range parts {
		st.Size = max(st.Size, d.logicalEnd(srv, p.Size))
		if p.ModTime.After(st.ModTime) {
			st.ModTime = p.ModTime
		}
	}
	return st
}

// ReadDistributed reads up to len(buf) bytes at off.
func (s *Store) ReadDistributed(ctx context.Context, ns, name string, d Distribution, buf []byte, off uint64) (int, error) {
	if err := ValidateName(ns, name); err != nil {
		return 0, err
	}
	if err := s.checkDistribution(d); err != nil {
		return 0, err
	}
	parts, err := s.parts(ctx, ns, name)
	if err != nil {
		return 0, fmt.Errorf("distributed object read: %w", err)
	}
	size := d.combine(parts).Size
	if off >= size {
		return 0, nil
	}
	buf = buf[:min(uint64(len(buf)), size-off)]

	n := 0
	for n < len(buf) {
		srv, local, left := d.Locate(off + uint64(n))
		want := int(min(int64(len(buf)-n), left))
		dst := buf[n : n+want]
		got, err := s.part(srv, ns, name).readAt(ctx, dst, local, parts[srv].Size)
		if err != nil {
			return n, fmt.Errorf("distributed object read: %w", err)
		}
		clear(dst[got:])
		n += want
	}
	return n, nil
}

// WriteDistributed writes data at off, block by block.
func (s *Store) WriteDistributed(ctx context.Context, ns, name string, d Distribution, data []byte, off uint64) (int, error) {
	if err := ValidateName(ns, name); err != nil {
		return 0, err
	}
	if err := s.checkDistribution(d); err != nil {
		return 0, err
	}
	parts, err := s.parts(ctx, ns, name)
	if err != nil {
		return 0, fmt.Errorf("distributed object write: %w", err)
	}

	n := 0
	for n < len(data) {
		srv, local, left := d.Locate(off + uint64(n))
		want := int(min(int64(len(data)-n), left))
		size, err := s.part(srv, ns, name).writeAt(ctx, data[n:n+want], local, parts[srv].Size)
		if err != nil {
			return n, fmt.Errorf("distributed object write: %w", err)
		}
		parts[srv].Size = size
		n += want
	}
	return n, nil
}
