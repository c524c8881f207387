package ueberdb

import "sync"

// fakeDriver is a minimal, synchronous Driver used across the package's
// tests: every callback fires before the call that triggered it returns.
type fakeDriver struct {
	mu   sync.Mutex
	data map[string]string

	defaults Settings

	bulkCalls int
	bulkSeen  [][]Op
	bulkErr   error

	closeCalls int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{data: map[string]string{}}
}

func (d *fakeDriver) Defaults() Settings { return d.defaults }

func (d *fakeDriver) Init(cb func(error)) { cb(nil) }

func (d *fakeDriver) Get(key string, cb func(value *string, err error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.data[key]
	if !ok {
		cb(nil, nil)
		return
	}
	cb(&v, nil)
}

func (d *fakeDriver) Set(key, value string, cb func(error)) {
	d.mu.Lock()
	d.data[key] = value
	d.mu.Unlock()
	cb(nil)
}

func (d *fakeDriver) Remove(key string, cb func(error)) {
	d.mu.Lock()
	delete(d.data, key)
	d.mu.Unlock()
	cb(nil)
}

func (d *fakeDriver) DoBulk(ops []Op, cb func(error)) {
	d.mu.Lock()
	d.bulkCalls++
	d.bulkSeen = append(d.bulkSeen, ops)
	err := d.bulkErr
	if err == nil {
		for _, op := range ops {
			switch op.Type {
			case OpSet:
				d.data[op.Key] = op.Value
			case OpRemove:
				delete(d.data, op.Key)
			}
		}
	}
	d.mu.Unlock()
	cb(err)
}

func (d *fakeDriver) Close(cb func(error)) {
	d.mu.Lock()
	d.closeCalls++
	d.mu.Unlock()
	cb(nil)
}
