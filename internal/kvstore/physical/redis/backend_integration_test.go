//go:build integration

package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gezibash/arc-bench/internal/kvstore/physical"
	"github.com/gezibash/arc-bench/internal/storage"
)

func newIntegrationBackend(t *testing.T) physical.Backend {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	opts := storage.Merge(Defaults(), storage.Options{
		KeyAddr:      addr,
		KeyDB:        "15",
		KeyKeyPrefix: fmt.Sprintf("bench-%d-", time.Now().UnixNano()),
	})
	be, err := NewFactory(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { be.Close() })
	return be
}

func TestPipelineApply(t *testing.T) {
	ctx := context.Background()
	be := newIntegrationBackend(t)

	ops := make([]physical.Op, 0, 64)
	for i := 0; i < 32; i++ {
		ops = append(ops, physical.Op{Kind: physical.OpPut, Key: fmt.Sprintf("benchmark-%d", i), Value: []byte("empty")})
	}
	ops = append(ops, physical.Op{Kind: physical.OpDelete, Key: "benchmark-0"})
	if err := be.Apply(ctx, ops); err != nil {
		t.Fatal(err)
	}

	if v, err := be.Get(ctx, "benchmark-31"); err != nil || string(v) != "empty" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if _, err := be.Get(ctx, "benchmark-0"); !errors.Is(err, physical.ErrNotFound) {
		t.Fatalf("deleted key: %v", err)
	}
}
