package ueberdb

// flushItem pairs a pending mutation with the entry it came from and the
// callbacks waiting on its outcome.
type flushItem struct {
	entry     *Entry
	op        Op
	callbacks []func(error)
}

// collectDirty drains every dirty entry from the buffer into a set of
// ops, clearing Dirty and taking each entry's callback queue as it goes.
//
// Dirty is cleared here, before DoBulk is even called, not after it
// returns (spec.md §4.6). That ordering is what makes re-dirtying safe:
// a Set that lands on an entry while its bulk is still in flight flips
// Dirty back to true and appends a fresh callback, so the next flush
// picks it up. Nothing is lost and nothing is flushed twice.
func (db *DB) collectDirty() []flushItem {
	db.buf.mu.Lock()
	defer db.buf.mu.Unlock()

	items := make([]flushItem, 0)
	for key, e := range db.buf.entries {
		if !e.Dirty {
			continue
		}
		op := Op{Key: key}
		if e.Value == nil {
			op.Type = OpRemove
		} else {
			op.Type = OpSet
			if db.settings.json() {
				raw, err := encodeValue(e.Value)
				if err != nil {
					cbs := e.takeCallbacks()
					e.Dirty = false
					dispatch(cbs, &DecodeError{Key: key, Err: err})
					continue
				}
				op.Value = raw
			} else if s, ok := e.Value.(string); ok {
				op.Value = s
			} else {
				cbs := e.takeCallbacks()
				e.Dirty = false
				dispatch(cbs, errNotAString(e.Value))
				continue
			}
		}
		cbs := e.takeCallbacks()
		e.Dirty = false
		items = append(items, flushItem{entry: e, op: op, callbacks: cbs})
	}
	return items
}

// dispatch invokes every callback in cbs with err, in order.
func dispatch(cbs []func(error), err error) {
	for _, cb := range cbs {
		cb(err)
	}
}

// Flush forces an immediate bulk write of every dirty entry. cb fires
// once the bulk (or, if there was nothing dirty, immediately) completes.
//
// Flushes are serialized: a second Flush call that arrives while one is
// already in flight waits for flushMu, so two bulks never run
// concurrently against the driver (spec.md §5).
func (db *DB) Flush(cb func(error)) {
	db.flushMu.Lock()
	items := db.collectDirty()
	if len(items) == 0 {
		db.flushMu.Unlock()
		if cb != nil {
			cb(nil)
		}
		return
	}

	ops := make([]Op, len(items))
	for i, it := range items {
		ops[i] = it.op
	}

	db.driver.DoBulk(ops, func(err error) {
		defer db.flushMu.Unlock()
		if err != nil && db.settings.retainDirtyOnFlushError() {
			db.buf.mu.Lock()
			for _, it := range items {
				it.entry.Dirty = true
			}
			db.buf.mu.Unlock()
		}
		for _, it := range items {
			dispatch(it.callbacks, err)
		}
		if cb != nil {
			cb(err)
		}
	})
}
