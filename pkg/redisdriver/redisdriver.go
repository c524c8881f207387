// Package redisdriver is a ueberdb.Driver backed by Redis, via
// github.com/redis/go-redis/v9.
package redisdriver

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jots/ueberDB"
)

// Driver stores keys as plain Redis strings, optionally namespaced under
// a prefix so several wrappers can share one Redis instance.
type Driver struct {
	client *redis.Client
	prefix string
}

// Option configures a Driver.
type Option func(*Driver)

// WithPrefix namespaces every key the driver touches.
func WithPrefix(prefix string) Option {
	return func(d *Driver) {
		d.prefix = prefix
	}
}

// New creates a Driver over an existing Redis client.
func New(client *redis.Client, opts ...Option) *Driver {
	d := &Driver{client: client}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) key(k string) string {
	if d.prefix == "" {
		return k
	}
	return d.prefix + ":" + k
}

// Defaults reports the built-in defaults; Redis round trips are cheap
// but not free, so buffering still pays for itself.
func (d *Driver) Defaults() ueberdb.Settings {
	return ueberdb.DefaultSettings
}

// Init pings the server to fail fast on a bad connection.
func (d *Driver) Init(cb func(error)) {
	if err := d.client.Ping(context.Background()).Err(); err != nil {
		cb(fmt.Errorf("redisdriver: ping: %w", err))
		return
	}
	cb(nil)
}

// Get returns the raw value for key, or a nil value if absent.
func (d *Driver) Get(key string, cb func(value *string, err error)) {
	val, err := d.client.Get(context.Background(), d.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		cb(nil, nil)
		return
	}
	if err != nil {
		cb(nil, fmt.Errorf("redisdriver: get %q: %w", key, err))
		return
	}
	cb(&val, nil)
}

// Set upserts key to value, with no expiry.
func (d *Driver) Set(key, value string, cb func(error)) {
	if err := d.client.Set(context.Background(), d.key(key), value, 0).Err(); err != nil {
		cb(fmt.Errorf("redisdriver: set %q: %w", key, err))
		return
	}
	cb(nil)
}

// Remove deletes key. A missing key is not an error.
func (d *Driver) Remove(key string, cb func(error)) {
	if err := d.client.Del(context.Background(), d.key(key)).Err(); err != nil {
		cb(fmt.Errorf("redisdriver: remove %q: %w", key, err))
		return
	}
	cb(nil)
}

// DoBulk applies ops inside a single transactional pipeline (MULTI/EXEC),
// so either every op lands or none do.
func (d *Driver) DoBulk(ops []ueberdb.Op, cb func(error)) {
	ctx := context.Background()
	_, err := d.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			switch op.Type {
			case ueberdb.OpSet:
				pipe.Set(ctx, d.key(op.Key), op.Value, 0)
			case ueberdb.OpRemove:
				pipe.Del(ctx, d.key(op.Key))
			}
		}
		return nil
	})
	if err != nil {
		cb(fmt.Errorf("redisdriver: bulk: %w", err))
		return
	}
	cb(nil)
}

// Close closes the underlying Redis client.
func (d *Driver) Close(cb func(error)) {
	cb(d.client.Close())
}
