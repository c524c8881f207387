package ueberdb

import "sort"

// gc runs the eviction sweep, invoked after every buffer insertion or
// mutation (spec.md §4.5). It never touches dirty entries: only clean
// (already-flushed) reads are eligible for eviction, so invariant 1
// ("a dirty entry is never evicted") holds regardless of cache pressure.
func (db *DB) gc() {
	cache := db.settings.cache()

	db.buf.mu.Lock()
	if cache == 0 || db.buf.len() < cache {
		db.buf.mu.Unlock()
		return
	}

	type candidate struct {
		key   string
		entry *Entry
	}
	clean := make([]candidate, 0, db.buf.len())
	for key, e := range db.buf.entries {
		if !e.Dirty {
			clean = append(clean, candidate{key, e})
		}
	}

	if len(clean) == 0 {
		// Every resident entry is dirty: there is nothing left to evict
		// until a flush clears some of them. Force one, then retry.
		db.buf.mu.Unlock()
		db.Flush(func(error) { db.gc() })
		return
	}

	sort.Slice(clean, func(i, j int) bool {
		return clean[i].entry.Timestamp.Before(clean[j].entry.Timestamp)
	})

	n := cache / 2
	if n > len(clean) {
		n = len(clean)
	}
	for i := 0; i < n; i++ {
		db.buf.delete(clean[i].key)
	}
	db.buf.mu.Unlock()

	if n > 0 {
		if m, ok := db.driver.(*MetricsDriver); ok {
			m.RecordEviction(n)
		}
	}
}
