package ueberdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNilDriver(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilDriver)
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	_, err := New(newFakeDriver(), WithSettings(Settings{Cache: Ptr(-1)}))
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestSetThenGetReadsYourWrites(t *testing.T) {
	driver := newFakeDriver()
	db, err := New(driver, WithSettings(Settings{WriteInterval: Ptr(time.Hour)}))
	require.NoError(t, err)
	require.NoError(t, await(db.Init))

	// WriteInterval is an hour away and the buffer is nowhere near
	// Cache, so nothing will flush: Set's callback only fires on a
	// flush, so it must not be awaited here. The point of this test is
	// read-your-writes off the buffer, not the write landing on disk.
	db.Set("k", "v", nil)

	val, err := awaitGet(db, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	// Not yet flushed: the driver must not have seen it.
	driver.mu.Lock()
	_, onDisk := driver.data["k"]
	driver.mu.Unlock()
	assert.False(t, onDisk)
}

func TestRemoveIsSetNil(t *testing.T) {
	driver := newFakeDriver()
	db, err := New(driver, WithSettings(Settings{WriteInterval: Ptr(time.Duration(0)), JSON: Ptr(true)}))
	require.NoError(t, err)
	require.NoError(t, await(db.Init))

	require.NoError(t, awaitSet(db, "k", "v"))
	val, err := awaitGet(db, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	removeDone := make(chan error, 1)
	db.Remove("k", func(err error) { removeDone <- err })
	require.NoError(t, <-removeDone)

	val, err = awaitGet(db, "k")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestWriteThroughBypassesBuffer(t *testing.T) {
	driver := newFakeDriver()
	db, err := New(driver, WithSettings(Settings{Cache: Ptr(0), WriteInterval: Ptr(time.Duration(0)), JSON: Ptr(true)}))
	require.NoError(t, err)
	require.NoError(t, await(db.Init))

	require.NoError(t, awaitSet(db, "k", "v"))

	driver.mu.Lock()
	raw, ok := driver.data["k"]
	driver.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, `"v"`, raw)
	assert.Equal(t, 0, db.buf.len())
}

func TestCloseFlushesPendingWrites(t *testing.T) {
	driver := newFakeDriver()
	db, err := New(driver, WithSettings(Settings{WriteInterval: Ptr(time.Hour)}))
	require.NoError(t, err)
	require.NoError(t, await(db.Init))

	// Same reasoning as TestSetThenGetReadsYourWrites: this Set only
	// queues in buffered mode, so its callback can't be awaited before
	// Close, which is what finally forces the flush that fires it.
	db.Set("k", "v", nil)
	require.NoError(t, await(db.Close))

	driver.mu.Lock()
	raw, ok := driver.data["k"]
	closeCalls := driver.closeCalls
	driver.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, `"v"`, raw)
	assert.Equal(t, 1, closeCalls)
}

func TestCallbackCompletenessOnCoalescedWrites(t *testing.T) {
	driver := newFakeDriver()
	db, err := New(driver, WithSettings(Settings{WriteInterval: Ptr(time.Hour)}))
	require.NoError(t, err)
	require.NoError(t, await(db.Init))

	n := 5
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		db.Set("k", "v", func(err error) { results <- err })
	}

	require.NoError(t, await(db.Flush))

	for i := 0; i < n; i++ {
		assert.NoError(t, <-results)
	}
}

func TestGetSubAndSetSub(t *testing.T) {
	driver := newFakeDriver()
	db, err := New(driver, WithSettings(Settings{WriteInterval: Ptr(time.Duration(0))}))
	require.NoError(t, err)
	require.NoError(t, await(db.Init))

	// SetSub only auto-creates the root document, not intermediate
	// containers along path, so "a" must already exist before "a/b" can
	// be set.
	require.NoError(t, awaitSet(db, "doc", map[string]interface{}{"a": map[string]interface{}{}}))

	setDone := make(chan error, 1)
	db.SetSub("doc", []string{"a", "b"}, "c", func(err error) { setDone <- err })
	require.NoError(t, <-setDone)

	getDone := make(chan interface{}, 1)
	getErrCh := make(chan error, 1)
	db.GetSub("doc", []string{"a", "b"}, func(v interface{}, err error) {
		getDone <- v
		getErrCh <- err
	})
	require.NoError(t, <-getErrCh)
	assert.Equal(t, "c", <-getDone)
}

func TestSetSubOnAbsentIntermediateFails(t *testing.T) {
	driver := newFakeDriver()
	db, err := New(driver, WithSettings(Settings{WriteInterval: Ptr(time.Duration(0))}))
	require.NoError(t, err)
	require.NoError(t, await(db.Init))

	errCh := make(chan error, 1)
	db.SetSub("doc", []string{"a", "b"}, "c", func(err error) { errCh <- err })
	err = <-errCh
	var pnf *PathNotFoundError
	assert.ErrorAs(t, err, &pnf)
}

func TestGetSubMissingPath(t *testing.T) {
	driver := newFakeDriver()
	db, err := New(driver, WithSettings(Settings{WriteInterval: Ptr(time.Duration(0))}))
	require.NoError(t, err)
	require.NoError(t, await(db.Init))

	require.NoError(t, awaitSet(db, "doc", map[string]interface{}{"a": "x"}))

	errCh := make(chan error, 1)
	db.GetSub("doc", []string{"missing"}, func(v interface{}, err error) { errCh <- err })
	err = <-errCh
	var pnf *PathNotFoundError
	assert.ErrorAs(t, err, &pnf)
}

func await(f func(func(error))) error {
	done := make(chan error, 1)
	f(func(err error) { done <- err })
	return <-done
}

// awaitSet blocks until key's Set callback fires. In buffered mode
// (WriteInterval > 0) that callback only fires on a flush, so callers
// must either be in write-through mode or have a flush already
// guaranteed to happen (e.g. gc's all-dirty escape hatch, or an
// explicit db.Flush) -- otherwise this blocks forever. When a test only
// needs the write queued, call db.Set directly with a nil callback.
func awaitSet(db *DB, key string, value interface{}) error {
	done := make(chan error, 1)
	db.Set(key, value, func(err error) { done <- err })
	return <-done
}

func awaitGet(db *DB, key string) (interface{}, error) {
	valCh := make(chan interface{}, 1)
	errCh := make(chan error, 1)
	db.Get(key, func(v interface{}, err error) {
		valCh <- v
		errCh <- err
	})
	return <-valCh, <-errCh
}
