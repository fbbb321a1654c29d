package seaweedfs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gezibash/arc-bench/internal/blobstore/physical"
	"github.com/gezibash/arc-bench/internal/storage"
)

// mockFiler creates an httptest server that emulates a SeaweedFS filer.
func mockFiler() (*httptest.Server, *mockStore) {
	store := &mockStore{blobs: make(map[string][]byte)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.EscapedPath()
		switch r.Method {
		case http.MethodPut:
			data, _ := io.ReadAll(r.Body)
			store.put(key, data)
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			data, ok := store.get(key)
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(data)
		case http.MethodHead:
			if _, ok := store.get(key); !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			if _, ok := store.get(key); !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			store.del(key)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	return srv, store
}

type mockStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (m *mockStore) put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
}

func (m *mockStore) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.blobs[key]
	return d, ok
}

func (m *mockStore) del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
}

func newTestBackend(t *testing.T) (*Backend, *mockStore) {
	t.Helper()
	srv, store := mockFiler()
	t.Cleanup(srv.Close)

	b, err := NewFactory(context.Background(), storage.Options{
		KeyFilerURL: srv.URL + "/",
		KeyPrefix:   "/bench/",
		KeyTimeout:  "5s",
	})
	if err != nil {
		t.Fatal(err)
	}
	return b.(*Backend), store
}

func TestPutGetRoundTrip(t *testing.T) {
	b, store := newTestBackend(t)
	ctx := context.Background()

	if err := b.Put(ctx, "srv0/benchmark/obj/chunk/0", []byte("hello seaweed")); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.get("/bench/srv0/benchmark/obj/chunk/0"); !ok {
		t.Fatalf("unexpected layout: %v", store.blobs)
	}

	got, err := b.Get(ctx, "srv0/benchmark/obj/chunk/0")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello seaweed" {
		t.Fatalf("got %q", got)
	}
}

func TestKeySegmentsAreEscaped(t *testing.T) {
	b, store := newTestBackend(t)
	if err := b.Put(context.Background(), "ns/with space", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.get("/bench/ns/with%20space"); !ok {
		t.Fatalf("stored keys = %v", store.blobs)
	}
}

func TestGetNotFound(t *testing.T) {
	b, _ := newTestBackend(t)
	if _, err := b.Get(context.Background(), "missing"); !errors.Is(err, physical.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestExistsAndDeleteIdempotent(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	if ok, err := b.Exists(ctx, "k"); err != nil || ok {
		t.Fatalf("Exists before put = %v, %v", ok, err)
	}
	if err := b.Put(ctx, "k", nil); err != nil {
		t.Fatal(err)
	}
	if ok, _ := b.Exists(ctx, "k"); !ok {
		t.Fatal("expected exists=true after put")
	}
	for i := 0; i < 2; i++ {
		if err := b.Delete(ctx, "k"); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewFactory(context.Background(), storage.Options{KeyFilerURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	ctx := context.Background()
	if err := b.Put(ctx, "k", []byte("x")); err == nil {
		t.Error("Put: expected error")
	}
	if _, err := b.Get(ctx, "k"); err == nil {
		t.Error("Get: expected error")
	}
	if _, err := b.Exists(ctx, "k"); err == nil {
		t.Error("Exists: expected error")
	}
	if err := b.Delete(ctx, "k"); err == nil {
		t.Error("Delete: expected error")
	}
}

func TestClosedBackend(t *testing.T) {
	b, _ := newTestBackend(t)
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := b.Put(ctx, "k", nil); !errors.Is(err, physical.ErrClosed) {
		t.Fatalf("Put after close: %v", err)
	}
	if _, err := b.Stats(ctx); !errors.Is(err, physical.ErrClosed) {
		t.Fatalf("Stats after close: %v", err)
	}
}

func TestNewFactoryErrors(t *testing.T) {
	tests := []struct {
		name string
		opts storage.Options
	}{
		{"missing filer url", storage.Options{}},
		{"relative prefix", storage.Options{KeyFilerURL: "http://filer:8888", KeyPrefix: "blobs"}},
		{"bad timeout", storage.Options{KeyFilerURL: "http://filer:8888", KeyTimeout: "later"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory(context.Background(), tt.opts)
			var cfgErr *storage.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err = %v, want ConfigError", err)
			}
		})
	}
}

func TestIntegration(t *testing.T) {
	filer := os.Getenv("SEAWEEDFS_FILER_URL")
	if filer == "" {
		t.Skip("SEAWEEDFS_FILER_URL not set, skipping integration test")
	}

	b, err := NewFactory(context.Background(), storage.Options{KeyFilerURL: filer, KeyPrefix: "/arc-bench-test"})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	ctx := context.Background()
	if err := b.Put(ctx, "integration", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := b.Delete(ctx, "integration"); err != nil {
		t.Fatal(err)
	}
}
