// Package syncdriver mirrors operations across several ueberdb.Driver
// backends.
package syncdriver

import (
	"fmt"

	"github.com/jots/ueberDB"
)

// Driver fans operations out across several other drivers.
//
// Order matters. Drivers should be given least- to most-authoritative;
// the last one is the authority driver. Driver "writes forward and
// reads backward": writes apply front-to-back, reads try the front
// drivers first and fall back toward the authority, and removals and
// bulk ops work backward from the authority so a front driver can never
// observe stale data that the authority has already discarded.
//
// A typical stack is [memdriver, sqlstore]: reads hit memory first, and
// the disk-backed store is the source of truth.
type Driver struct {
	drivers []ueberdb.Driver
}

// New creates a Driver over drivers, ordered least to most authoritative.
func New(drivers ...ueberdb.Driver) *Driver {
	return &Driver{drivers: drivers}
}

func (d *Driver) authority() ueberdb.Driver {
	return d.drivers[len(d.drivers)-1]
}

// Defaults reports the authority driver's declared settings, since it is
// the one whose latency the buffer is actually hiding.
func (d *Driver) Defaults() ueberdb.Settings {
	return d.authority().Defaults()
}

// Init initializes every driver in order, front to back.
func (d *Driver) Init(cb func(error)) {
	d.each(0, func(err error) {
		cb(err)
	})
}

func (d *Driver) each(i int, cb func(error)) {
	if i >= len(d.drivers) {
		cb(nil)
		return
	}
	d.drivers[i].Init(func(err error) {
		if err != nil {
			cb(fmt.Errorf("syncdriver: init driver %d: %w", i, err))
			return
		}
		d.each(i+1, cb)
	})
}

// Get tries each driver front to back and returns the first hit. If a
// hit is found after consulting earlier drivers, it is written back into
// every driver that missed, so they warm up for next time. Write-back
// errors are ignored: the earlier drivers already proved they can be
// read from, so a write-back failure is treated as non-fatal staleness.
func (d *Driver) Get(key string, cb func(value *string, err error)) {
	d.getFrom(0, key, nil, cb)
}

func (d *Driver) getFrom(i int, key string, missed []int, cb func(value *string, err error)) {
	if i >= len(d.drivers) {
		cb(nil, nil)
		return
	}
	d.drivers[i].Get(key, func(value *string, err error) {
		if err != nil {
			cb(nil, fmt.Errorf("syncdriver: get driver %d: %w", i, err))
			return
		}
		if value == nil {
			d.getFrom(i+1, key, append(missed, i), cb)
			return
		}
		for _, j := range missed {
			d.drivers[j].Set(key, *value, func(error) {})
		}
		cb(value, nil)
	})
}

// Set writes to every driver in order, front to back. If any driver
// fails, the write stops there and the drivers already written to are
// rolled back to their prior value.
func (d *Driver) Set(key, value string, cb func(error)) {
	d.getFrom(0, key, nil, func(orig *string, _ error) {
		d.setFrom(0, key, value, orig, cb)
	})
}

func (d *Driver) setFrom(i int, key, value string, orig *string, cb func(error)) {
	if i >= len(d.drivers) {
		cb(nil)
		return
	}
	d.drivers[i].Set(key, value, func(err error) {
		if err != nil {
			d.rollback(i-1, key, orig)
			cb(fmt.Errorf("syncdriver: set driver %d: %w", i, err))
			return
		}
		d.setFrom(i+1, key, value, orig, cb)
	})
}

func (d *Driver) rollback(last int, key string, orig *string) {
	for i := last; i >= 0; i-- {
		if orig == nil {
			d.drivers[i].Remove(key, func(error) {})
		} else {
			d.drivers[i].Set(key, *orig, func(error) {})
		}
	}
}

// Remove deletes key from every driver, working backward from the
// authority so a front driver can never resurrect data the authority has
// already discarded.
func (d *Driver) Remove(key string, cb func(error)) {
	d.removeFrom(len(d.drivers)-1, key, cb)
}

func (d *Driver) removeFrom(i int, key string, cb func(error)) {
	if i < 0 {
		cb(nil)
		return
	}
	d.drivers[i].Remove(key, func(err error) {
		if err != nil {
			cb(fmt.Errorf("syncdriver: remove driver %d: %w", i, err))
			return
		}
		d.removeFrom(i-1, key, cb)
	})
}

// DoBulk applies ops to every driver, working backward from the
// authority. Each driver's own DoBulk is atomic, but the fan-out is not:
// if a driver fails, the drivers after it in the list keep the ops they
// already applied, and the drivers before it are not written.
func (d *Driver) DoBulk(ops []ueberdb.Op, cb func(error)) {
	d.bulkFrom(len(d.drivers)-1, ops, cb)
}

func (d *Driver) bulkFrom(i int, ops []ueberdb.Op, cb func(error)) {
	if i < 0 {
		cb(nil)
		return
	}
	d.drivers[i].DoBulk(ops, func(err error) {
		if err != nil {
			cb(fmt.Errorf("syncdriver: bulk driver %d: %w", i, err))
			return
		}
		d.bulkFrom(i-1, ops, cb)
	})
}

// Close closes every driver, working backward from the authority.
func (d *Driver) Close(cb func(error)) {
	d.closeFrom(len(d.drivers)-1, cb)
}

func (d *Driver) closeFrom(i int, cb func(error)) {
	if i < 0 {
		cb(nil)
		return
	}
	d.drivers[i].Close(func(err error) {
		if err != nil {
			cb(fmt.Errorf("syncdriver: close driver %d: %w", i, err))
			return
		}
		d.closeFrom(i-1, cb)
	})
}
