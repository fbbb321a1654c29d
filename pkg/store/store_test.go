package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/gezibash/arc-bench/internal/storage"
	arcerrors "github.com/gezibash/arc-bench/pkg/errors"
)

func newTestClient(t *testing.T, servers int) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ObjectServers = servers
	cfg.ChunkSize = 8
	c, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func execute(t *testing.T, b *Batch) {
	t.Helper()
	if err := b.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{KVBackend: "etcd"})
	var cfgErr *storage.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
}

func TestKVRoundTrip(t *testing.T) {
	c := newTestClient(t, 1)
	b := c.NewBatch()
	defer b.Release()

	kv := c.NewKV("benchmark", "benchmark-1")
	if err := kv.Put(b, []byte("v1")); err != nil {
		t.Fatal(err)
	}
	var got []byte
	if err := kv.Get(b, func(v []byte) { got = v }); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	execute(t, b)
	if string(got) != "v1" {
		t.Fatalf("got %q", got)
	}
	if b.Len() != 0 {
		t.Fatalf("Len after execute = %d", b.Len())
	}

	_ = kv.Delete(b)
	_ = kv.Get(b, nil)
	err := b.Execute(context.Background())
	if !errors.Is(err, arcerrors.ErrNotFound) {
		t.Fatalf("get after delete = %v, want ErrNotFound", err)
	}
}

func TestKVInvalidKey(t *testing.T) {
	c := newTestClient(t, 1)
	b := c.NewBatch()
	if err := c.NewKV("", "k").Put(b, nil); !errors.Is(err, arcerrors.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if b.Len() != 0 {
		t.Fatal("rejected op was staged")
	}
}

func TestReleasedBatch(t *testing.T) {
	c := newTestClient(t, 1)
	b := c.NewBatch()
	_ = c.NewKV("ns", "k").Put(b, []byte("x"))
	b.Release()

	if b.Len() != 0 {
		t.Fatal("release kept staged ops")
	}
	if err := c.NewKV("ns", "k").Put(b, nil); !errors.Is(err, arcerrors.ErrReleased) {
		t.Fatalf("stage after release = %v", err)
	}
	if err := b.Execute(context.Background()); !errors.Is(err, arcerrors.ErrReleased) {
		t.Fatalf("execute after release = %v", err)
	}
}

func TestExecuteKeepsOrder(t *testing.T) {
	c := newTestClient(t, 1)
	b := c.NewBatch()
	kv := c.NewKV("ns", "k")

	var seen []string
	_ = kv.Put(b, []byte("a"))
	_ = kv.Get(b, func(v []byte) { seen = append(seen, string(v)) })
	_ = kv.Put(b, []byte("b"))
	_ = b.Add(func(context.Context, *Client) error {
		seen = append(seen, "fn")
		return nil
	})
	_ = kv.Get(b, func(v []byte) { seen = append(seen, string(v)) })
	execute(t, b)

	if len(seen) != 3 || seen[0] != "a" || seen[1] != "fn" || seen[2] != "b" {
		t.Fatalf("seen = %v", seen)
	}
}

func TestExecuteStopsAtFailure(t *testing.T) {
	c := newTestClient(t, 1)
	b := c.NewBatch()
	boom := errors.New("boom")
	ran := false
	_ = b.Add(func(context.Context, *Client) error { return boom })
	_ = b.Add(func(context.Context, *Client) error {
		ran = true
		return nil
	})
	if err := b.Execute(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if ran {
		t.Fatal("op after failure ran")
	}
	if b.Len() != 0 {
		t.Fatal("failed execute kept staged ops")
	}
}

func TestObject(t *testing.T) {
	c := newTestClient(t, 2)
	b := c.NewBatch()
	obj := c.NewObject("benchmark", "benchmark-0")

	var written, read uint64
	buf := make([]byte, 16)
	var st ObjectStatus
	_ = obj.Create(b)
	_ = obj.Write(b, []byte("0123456789"), 0, &written)
	_ = obj.Read(b, buf, 4, &read)
	_ = obj.Status(b, &st)
	execute(t, b)

	if written != 10 || read != 6 || !bytes.Equal(buf[:read], []byte("456789")) {
		t.Fatalf("written=%d read=%d buf=%q", written, read, buf[:read])
	}
	if st.Size != 10 || st.ModTime.IsZero() {
		t.Fatalf("status = %+v", st)
	}

	_ = obj.Delete(b)
	_ = obj.Status(b, &st)
	if err := b.Execute(context.Background()); !errors.Is(err, arcerrors.ErrNotFound) {
		t.Fatalf("status after delete = %v", err)
	}
}

func TestObjectInvalidName(t *testing.T) {
	c := newTestClient(t, 1)
	if err := c.NewObject("ns", "a/b").Create(c.NewBatch()); !errors.Is(err, arcerrors.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}

func TestDistributedObject(t *testing.T) {
	c := newTestClient(t, 3)
	dist, err := c.NewDistribution(RoundRobin, 4)
	if err != nil {
		t.Fatal(err)
	}
	obj := c.NewDistributedObject("benchmark", "striped", dist)

	b := c.NewBatch()
	data := bytes.Repeat([]byte("abcd"), 5)
	var n uint64
	var st ObjectStatus
	_ = obj.Create(b)
	_ = obj.Write(b, data, 0, &n)
	_ = obj.Status(b, &st)
	execute(t, b)
	if n != 20 || st.Size != 20 {
		t.Fatalf("written=%d size=%d", n, st.Size)
	}

	buf := make([]byte, 20)
	_ = obj.Read(b, buf, 0, &n)
	_ = obj.Delete(b)
	execute(t, b)
	if !bytes.Equal(buf, data) {
		t.Fatalf("read %q", buf)
	}

	if _, err := c.NewDistribution(RoundRobin, 0); !errors.Is(err, arcerrors.ErrInvalidInput) {
		t.Fatalf("zero block size = %v", err)
	}
	if err := c.NewDistributedObject("ns", "x", nil).Create(b); !errors.Is(err, arcerrors.ErrInvalidInput) {
		t.Fatalf("nil distribution = %v", err)
	}
}
