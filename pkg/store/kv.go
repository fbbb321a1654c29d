package store

import (
	"context"
	"strings"

	kvphysical "github.com/gezibash/arc-bench/internal/kvstore/physical"
)

// KV is a handle on one key.
type KV struct {
	ns  string
	key string
}

// NewKV returns a handle on key in namespace ns.
func (c *Client) NewKV(ns, key string) *KV {
	return &KV{ns: ns, key: key}
}

func (kv *KV) path() (string, error) {
	if kv.ns == "" || kv.key == "" || strings.Contains(kv.ns, "/") {
		return "", invalid("kv key %q/%q", kv.ns, kv.key)
	}
	return kv.ns + "/" + kv.key, nil
}

// Put stages a write of value.
func (kv *KV) Put(b *Batch, value []byte) error {
	key, err := kv.path()
	if err != nil {
		return err
	}
	return b.stage(staged{kv: &kvphysical.Op{Kind: kvphysical.OpPut, Key: key, Value: value}})
}

// Delete stages removal of the key. Deleting a missing key succeeds.
func (kv *KV) Delete(b *Batch) error {
	key, err := kv.path()
	if err != nil {
		return err
	}
	return b.stage(staged{kv: &kvphysical.Op{Kind: kvphysical.OpDelete, Key: key}})
}

// Get stages a lookup. fn receives the value during Execute; a missing key
// fails the batch.
func (kv *KV) Get(b *Batch, fn func(value []byte)) error {
	key, err := kv.path()
	if err != nil {
		return err
	}
	return b.stage(staged{fn: func(ctx context.Context, c *Client) error {
		v, err := c.kv.Get(ctx, key)
		if err != nil {
			return err
		}
		if fn != nil {
			fn(v)
		}
		return nil
	}})
}
