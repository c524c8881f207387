// Package ueberdb wraps a pluggable storage Driver with a bounded read
// cache and coalesced, periodic writes: reads come back from memory
// once a key has been touched, and writes accumulate in a dirty buffer
// until the next flush folds them into a single bulk operation on the
// underlying driver.
package ueberdb

import (
	"sync"
	"time"
)

// DB is a buffered, cached handle onto a Driver.
type DB struct {
	driver   Driver
	buf      *buffer
	settings Settings

	callerSettings  Settings
	onUncaughtError func(error)

	flushMu sync.Mutex

	tickerStop chan struct{}
	tickerDone chan struct{}

	closeOnce sync.Once
	closed    bool
	stateMu   sync.Mutex
}

// New constructs a DB over driver. Settings are resolved by layering
// DefaultSettings, then driver.Defaults(), then any WithSettings option,
// and are frozen for the DB's lifetime (spec.md §3, §4.1).
func New(driver Driver, opts ...Option) (*DB, error) {
	if driver == nil {
		return nil, ErrNilDriver
	}

	db := &DB{
		driver:          driver,
		buf:             newBuffer(),
		onUncaughtError: func(error) {},
	}
	for _, opt := range opts {
		opt(db)
	}

	db.settings = resolveSettings(DefaultSettings, driver.Defaults(), db.callerSettings)
	if err := db.settings.validate(); err != nil {
		return nil, err
	}

	return db, nil
}

// Init prepares the underlying driver and starts the periodic flush
// loop, if WriteInterval is non-zero.
func (db *DB) Init(cb func(error)) {
	db.driver.Init(func(err error) {
		if err != nil {
			if cb != nil {
				cb(err)
			}
			return
		}
		if db.settings.writeInterval() > 0 {
			db.startTicker()
		}
		if cb != nil {
			cb(nil)
		}
	})
}

func (db *DB) startTicker() {
	db.tickerStop = make(chan struct{})
	db.tickerDone = make(chan struct{})
	go func() {
		defer close(db.tickerDone)
		ticker := time.NewTicker(db.settings.writeInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				db.Flush(nil)
			case <-db.tickerStop:
				return
			}
		}
	}()
}

// Close stops the periodic flush loop, performs one final synchronous
// flush to drain whatever is still dirty, and then closes the driver.
func (db *DB) Close(cb func(error)) {
	db.stateMu.Lock()
	if db.closed {
		db.stateMu.Unlock()
		if cb != nil {
			cb(ErrClosed)
		}
		return
	}
	db.closed = true
	db.stateMu.Unlock()

	if db.tickerStop != nil {
		close(db.tickerStop)
		<-db.tickerDone
	}

	db.Flush(func(err error) {
		db.driver.Close(func(cerr error) {
			if err == nil {
				err = cerr
			}
			if cb != nil {
				cb(err)
			}
		})
	})
}

// Get returns the value stored at key. A missing key yields a nil value
// and a nil error (spec.md §4.2).
func (db *DB) Get(key string, cb func(value interface{}, err error)) {
	db.buf.mu.Lock()
	if e, ok := db.buf.get(key); ok && (db.settings.cache() > 0 || e.Dirty) {
		e.touch()
		v := e.Value
		db.buf.mu.Unlock()
		if cb != nil {
			cb(v, nil)
		}
		return
	}
	db.buf.mu.Unlock()

	db.driver.Get(key, func(raw *string, err error) {
		if err != nil {
			if cb != nil {
				cb(nil, err)
			}
			return
		}
		if raw == nil {
			if cb != nil {
				cb(nil, nil)
			}
			return
		}

		var value interface{} = *raw
		if db.settings.json() {
			decoded, derr := decodeValue(*raw)
			if derr != nil {
				if cb != nil {
					cb(nil, &DecodeError{Key: key, Err: derr})
				}
				return
			}
			value = decoded
		}

		if db.settings.cache() > 0 {
			db.buf.mu.Lock()
			if _, exists := db.buf.get(key); !exists {
				db.buf.insert(key, newEntry(value, false))
			}
			db.buf.mu.Unlock()
			db.gc()
		}

		if cb != nil {
			cb(value, nil)
		}
	})
}

// Set stores value at key. A nil value deletes the key (equivalent to
// Remove).
//
// When WriteInterval is zero the write goes straight through to the
// driver (spec.md §4.3, "bypass the buffer entirely"). Otherwise it
// lands in the buffer, marked dirty, and waits for the next flush.
func (db *DB) Set(key string, value interface{}, cb func(error)) {
	if cb == nil {
		cb = db.onUncaughtError
	}

	if db.settings.writeInterval() == 0 {
		db.writeThrough(key, value, cb)
		return
	}

	db.buf.mu.Lock()
	e, ok := db.buf.get(key)
	if !ok {
		e = newEntry(value, true)
		db.buf.insert(key, e)
	} else {
		e.Value = value
		e.Dirty = true
		e.touch()
	}
	e.addCallback(cb)
	db.buf.mu.Unlock()

	db.gc()
}

// Remove deletes key. It is equivalent to Set(key, nil, cb).
func (db *DB) Remove(key string, cb func(error)) {
	db.Set(key, nil, cb)
}

// writeThrough applies a mutation directly to the driver. It never
// stores the new value in the buffer, but it does evict any clean entry
// already cached there for key: without that, a Get that had cached the
// prior value (Cache is independent of WriteInterval) would keep
// serving it after a write-through mutation replaced or removed it at
// the driver.
func (db *DB) writeThrough(key string, value interface{}, cb func(error)) {
	onDone := func(err error) {
		if err == nil {
			db.buf.mu.Lock()
			db.buf.delete(key)
			db.buf.mu.Unlock()
		}
		cb(err)
	}

	if value == nil {
		db.driver.Remove(key, onDone)
		return
	}

	raw, ok := value.(string)
	if db.settings.json() {
		encoded, err := encodeValue(value)
		if err != nil {
			cb(&DecodeError{Key: key, Err: err})
			return
		}
		raw = encoded
	} else if !ok {
		cb(&DecodeError{Key: key, Err: errNotAString(value)})
		return
	}
	db.driver.Set(key, raw, onDone)
}

// GetSub returns the value at path within the document stored at key.
func (db *DB) GetSub(key string, path []string, cb func(value interface{}, err error)) {
	db.Get(key, func(whole interface{}, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		v, serr := getSubvalue(key, whole, path)
		cb(v, serr)
	})
}

// SetSub stores value at path within the document stored at key, then
// writes the mutated document back via Set. The root document is
// created if key is absent, but every intermediate container along path
// must already exist: a missing step returns a *PathNotFoundError, the
// same failure rule GetSub applies (spec.md §4.4).
func (db *DB) SetSub(key string, path []string, value interface{}, cb func(error)) {
	db.Get(key, func(whole interface{}, err error) {
		if err != nil {
			cb(err)
			return
		}
		mutated, serr := setSubvalue(key, whole, path, value)
		if serr != nil {
			cb(serr)
			return
		}
		db.Set(key, mutated, cb)
	})
}
