// Package memdriver is an in-memory ueberdb.Driver backed by
// github.com/edge/atomicstore, for ephemeral or test-only stores.
package memdriver

import (
	"sync"

	"github.com/edge/atomicstore"

	"github.com/jots/ueberDB"
)

// Driver keeps every key in a single atomicstore.Store. A driver-level
// mutex serializes DoBulk against concurrent Get/Set/Remove so a reader
// never observes a half-applied bulk.
type Driver struct {
	store *atomicstore.Store
	mu    sync.RWMutex
}

// New creates a memdriver Driver.
func New() *Driver {
	return &Driver{store: atomicstore.New(true)}
}

// Defaults declares MemorySettings: there is no I/O latency to hide
// behind a buffer (spec.md §6).
func (d *Driver) Defaults() ueberdb.Settings {
	return ueberdb.MemorySettings
}

// Init is a no-op; the store is ready at construction.
func (d *Driver) Init(cb func(error)) {
	cb(nil)
}

// Get returns the raw value for key, or a nil value if absent.
func (d *Driver) Get(key string, cb func(value *string, err error)) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.store.Get(key)
	if !ok {
		cb(nil, nil)
		return
	}
	s := v.(string)
	cb(&s, nil)
}

// Set upserts key to value.
func (d *Driver) Set(key, value string, cb func(error)) {
	d.mu.Lock()
	d.store.Insert(key, value)
	d.mu.Unlock()
	cb(nil)
}

// Remove deletes key. A missing key is not an error.
func (d *Driver) Remove(key string, cb func(error)) {
	d.mu.Lock()
	d.store.Delete(key)
	d.mu.Unlock()
	cb(nil)
}

// DoBulk applies ops atomically under the driver's write lock, so no
// reader observes the store between the first and last op.
func (d *Driver) DoBulk(ops []ueberdb.Op, cb func(error)) {
	d.mu.Lock()
	for _, op := range ops {
		switch op.Type {
		case ueberdb.OpSet:
			d.store.Insert(op.Key, op.Value)
		case ueberdb.OpRemove:
			d.store.Delete(op.Key)
		}
	}
	d.mu.Unlock()
	cb(nil)
}

// Close is a no-op; the store holds no external resources.
func (d *Driver) Close(cb func(error)) {
	cb(nil)
}
