package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	kvphysical "github.com/gezibash/arc-bench/internal/kvstore/physical"
	"github.com/gezibash/arc-bench/internal/objectstore"
)

const (
	collectionNS = "collections"
	itemNSPrefix = "item."
)

// Collection groups items. Its record lives in the key-value store.
type Collection struct {
	name    string
	created time.Time
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Created returns the creation time recorded in the store.
func (c *Collection) Created() time.Time { return c.created }

func checkCollection(name string) error {
	if err := objectstore.ValidateName(collectionNS, name); err != nil {
		return invalid("collection %q", name)
	}
	return nil
}

func encodeTime(t time.Time) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(t.UnixNano()))
}

func decodeUint64(what string, v []byte) (uint64, error) {
	if len(v) != 8 {
		return 0, fmt.Errorf("corrupt %s record: %d bytes", what, len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

// CreateCollection stages creation of collection name and returns its
// handle right away.
func (c *Client) CreateCollection(b *Batch, name string) (*Collection, error) {
	if err := checkCollection(name); err != nil {
		return nil, err
	}
	coll := &Collection{name: name, created: time.Now()}
	err := b.stage(staged{kv: &kvphysical.Op{
		Kind:  kvphysical.OpPut,
		Key:   collectionNS + "/" + name,
		Value: encodeTime(coll.created),
	}})
	if err != nil {
		return nil, err
	}
	return coll, nil
}

// GetCollection stages a lookup of collection name into out.
func (c *Client) GetCollection(b *Batch, name string, out **Collection) error {
	if err := checkCollection(name); err != nil {
		return err
	}
	if out == nil {
		return invalid("nil collection destination")
	}
	return b.stage(staged{fn: func(ctx context.Context, c *Client) error {
		v, err := c.kv.Get(ctx, collectionNS+"/"+name)
		if err != nil {
			return err
		}
		ns, err := decodeUint64("collection", v)
		if err != nil {
			return err
		}
		*out = &Collection{name: name, created: time.Unix(0, int64(ns))}
		return nil
	}})
}

// Delete stages removal of the collection record. Items are left alone.
func (c *Collection) Delete(b *Batch) error {
	return b.stage(staged{kv: &kvphysical.Op{Kind: kvphysical.OpDelete, Key: collectionNS + "/" + c.name}})
}

// Item is a named byte stream in a collection, stored as a distributed
// object.
type Item struct {
	collection string
	name       string
	dist       objectstore.Distribution
}

// ItemStatus is filled in by GetStatus during Execute.
type ItemStatus struct {
	Size    uint64
	ModTime time.Time
}

// Name returns the item name.
func (it *Item) Name() string { return it.name }

func (c *Collection) itemNS() string { return itemNSPrefix + c.name }

func (c *Collection) itemKey(name string) string { return c.itemNS() + "/" + name }

// CreateItem stages creation of item name striped by dist.
func (c *Collection) CreateItem(b *Batch, name string, dist *Distribution) (*Item, error) {
	if err := objectstore.ValidateName(c.itemNS(), name); err != nil {
		return nil, invalid("item %q", name)
	}
	if dist == nil {
		return nil, invalid("item %s needs a distribution", name)
	}
	it := &Item{collection: c.name, name: name, dist: dist.d}
	err := b.stage(staged{kv: &kvphysical.Op{
		Kind:  kvphysical.OpPut,
		Key:   c.itemKey(name),
		Value: binary.BigEndian.AppendUint64(nil, uint64(dist.d.BlockSize)),
	}})
	if err != nil {
		return nil, err
	}
	if err := it.object().Create(b); err != nil {
		return nil, err
	}
	return it, nil
}

// GetItem stages a lookup of item name into out.
func (c *Collection) GetItem(b *Batch, name string, out **Item) error {
	if err := objectstore.ValidateName(c.itemNS(), name); err != nil {
		return invalid("item %q", name)
	}
	if out == nil {
		return invalid("nil item destination")
	}
	return b.stage(staged{fn: func(ctx context.Context, cl *Client) error {
		v, err := cl.kv.Get(ctx, c.itemKey(name))
		if err != nil {
			return err
		}
		bs, err := decodeUint64("item", v)
		if err != nil {
			return err
		}
		d, err := cl.objects.Distribution(int64(bs))
		if err != nil {
			return err
		}
		*out = &Item{collection: c.name, name: name, dist: d}
		return nil
	}})
}

func (it *Item) object() *DistributedObject {
	return &DistributedObject{ns: itemNSPrefix + it.collection, name: it.name, dist: it.dist}
}

// Delete stages removal of the item record and its data.
func (it *Item) Delete(b *Batch) error {
	if err := b.stage(staged{kv: &kvphysical.Op{
		Kind: kvphysical.OpDelete,
		Key:  itemNSPrefix + it.collection + "/" + it.name,
	}}); err != nil {
		return err
	}
	return it.object().Delete(b)
}

// GetStatus stages a status lookup into st.
func (it *Item) GetStatus(b *Batch, st *ItemStatus) error {
	if st == nil {
		return invalid("nil status")
	}
	o := it.object()
	return o.stage(b, func(ctx context.Context, s *objectstore.Store) error {
		got, err := s.StatDistributed(ctx, o.ns, o.name, o.dist)
		if err != nil {
			return err
		}
		*st = ItemStatus(got)
		return nil
	})
}

// Read stages a read into buf at off. n receives the bytes read.
func (it *Item) Read(b *Batch, buf []byte, off uint64, n *uint64) error {
	return it.object().Read(b, buf, off, n)
}

// Write stages a write of data at off. n receives the bytes written.
func (it *Item) Write(b *Batch, data []byte, off uint64, n *uint64) error {
	return it.object().Write(b, data, off, n)
}
