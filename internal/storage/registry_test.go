package storage

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

type fakeBackend struct {
	opts   Options
	closed bool
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func newTestRegistry() *Registry[*fakeBackend] {
	r := NewRegistry[*fakeBackend]("teststore")
	r.Register("fake", func(_ context.Context, opts Options) (*fakeBackend, error) {
		if opts["fail"] != "" {
			return nil, &ConfigError{Field: "fail", Value: opts["fail"], Message: "asked to fail"}
		}
		return &fakeBackend{opts: opts}, nil
	}, func() Options {
		return Options{"path": "/default", "mode": "fast"}
	})
	r.Register("bare", func(_ context.Context, opts Options) (*fakeBackend, error) {
		return &fakeBackend{opts: opts}, nil
	}, nil)
	return r
}

func TestRegistryNewMergesDefaults(t *testing.T) {
	r := newTestRegistry()

	b, err := r.New(context.Background(), "fake", Options{"path": "/custom"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.opts["path"] != "/custom" || b.opts["mode"] != "fast" {
		t.Errorf("opts = %v", b.opts)
	}
}

func TestRegistryNewUnknown(t *testing.T) {
	r := newTestRegistry()

	_, err := r.New(context.Background(), "nope", nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if !strings.Contains(err.Error(), "available: [bare fake]") {
		t.Errorf("error should list backends: %v", err)
	}
}

func TestRegistryNewTagsBackend(t *testing.T) {
	r := newTestRegistry()

	_, err := r.New(context.Background(), "fake", Options{"fail": "yes"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Backend != "fake" {
		t.Errorf("Backend = %q, want fake", cfgErr.Backend)
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := newTestRegistry()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.Register("fake", nil, nil)
}

func TestRegistryIntrospection(t *testing.T) {
	r := newTestRegistry()

	if got := r.List(); !slices.Equal(got, []string{"bare", "fake"}) {
		t.Errorf("List = %v", got)
	}
	if !r.IsRegistered("bare") || r.IsRegistered("nope") {
		t.Error("IsRegistered mismatch")
	}
	if d := r.Defaults("fake"); d["mode"] != "fast" {
		t.Errorf("Defaults = %v", d)
	}
	if d := r.Defaults("bare"); d != nil {
		t.Errorf("Defaults bare = %v, want nil", d)
	}
}
