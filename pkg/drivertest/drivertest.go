// Package drivertest is a black-box conformance suite any ueberdb.Driver
// implementation can run against itself: give it a factory and it
// exercises Init/Get/Set/Remove/DoBulk/Close the way the wrapper itself
// would.
package drivertest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jots/ueberDB"
)

// Factory returns a freshly constructed, uninitialized Driver for each
// test. Each call must yield an independent driver (a fresh database
// file, a new in-memory store, a flushed miniredis instance).
type Factory = func() ueberdb.Driver

// Tester runs the conformance suite against drivers produced by a
// Factory.
type Tester struct {
	factory Factory
}

// New creates a Tester backed by factory.
func New(factory Factory) *Tester {
	return &Tester{factory: factory}
}

// Run executes every conformance test in sequence.
func (dt *Tester) Run(t *testing.T) {
	t.Run("SetAndGet", dt.SetAndGet)
	t.Run("GetMissing", dt.GetMissing)
	t.Run("Overwrite", dt.Overwrite)
	t.Run("Remove", dt.Remove)
	t.Run("RemoveMissing", dt.RemoveMissing)
	t.Run("DoBulk", dt.DoBulk)
	t.Run("DoBulkOrdering", dt.DoBulkOrdering)
}

func (dt *Tester) init(t *testing.T) ueberdb.Driver {
	d := dt.factory()
	done := make(chan error, 1)
	d.Init(func(err error) { done <- err })
	require.NoError(t, <-done)
	return d
}

// SetAndGet verifies a written key reads back unchanged.
func (dt *Tester) SetAndGet(t *testing.T) {
	a := assert.New(t)
	d := dt.init(t)

	setDone := make(chan error, 1)
	d.Set("k1", "v1", func(err error) { setDone <- err })
	a.NoError(<-setDone)

	getDone := make(chan *string, 1)
	getErr := make(chan error, 1)
	d.Get("k1", func(v *string, err error) { getDone <- v; getErr <- err })
	a.NoError(<-getErr)
	v := <-getDone
	if a.NotNil(v) {
		a.Equal("v1", *v)
	}
}

// GetMissing verifies an absent key reports a nil value and nil error.
func (dt *Tester) GetMissing(t *testing.T) {
	a := assert.New(t)
	d := dt.init(t)

	getDone := make(chan *string, 1)
	getErr := make(chan error, 1)
	d.Get("nope", func(v *string, err error) { getDone <- v; getErr <- err })
	a.NoError(<-getErr)
	a.Nil(<-getDone)
}

// Overwrite verifies a second Set replaces the first.
func (dt *Tester) Overwrite(t *testing.T) {
	a := assert.New(t)
	d := dt.init(t)

	for _, v := range []string{"a", "b"} {
		done := make(chan error, 1)
		d.Set("k", v, func(err error) { done <- err })
		a.NoError(<-done)
	}

	getDone := make(chan *string, 1)
	d.Get("k", func(v *string, err error) { getDone <- v })
	v := <-getDone
	if a.NotNil(v) {
		a.Equal("b", *v)
	}
}

// Remove verifies a removed key subsequently reads as missing.
func (dt *Tester) Remove(t *testing.T) {
	a := assert.New(t)
	d := dt.init(t)

	setDone := make(chan error, 1)
	d.Set("k", "v", func(err error) { setDone <- err })
	a.NoError(<-setDone)

	rmDone := make(chan error, 1)
	d.Remove("k", func(err error) { rmDone <- err })
	a.NoError(<-rmDone)

	getDone := make(chan *string, 1)
	d.Get("k", func(v *string, err error) { getDone <- v })
	a.Nil(<-getDone)
}

// RemoveMissing verifies removing an absent key is not an error.
func (dt *Tester) RemoveMissing(t *testing.T) {
	a := assert.New(t)
	d := dt.init(t)

	rmDone := make(chan error, 1)
	d.Remove("nope", func(err error) { rmDone <- err })
	a.NoError(<-rmDone)
}

// DoBulk verifies every op of a mixed bulk of sets and removes is applied.
func (dt *Tester) DoBulk(t *testing.T) {
	a := assert.New(t)
	d := dt.init(t)

	setDone := make(chan error, 1)
	d.Set("stale", "x", func(err error) { setDone <- err })
	a.NoError(<-setDone)

	ops := []ueberdb.Op{
		{Type: ueberdb.OpSet, Key: "k1", Value: "v1"},
		{Type: ueberdb.OpSet, Key: "k2", Value: "v2"},
		{Type: ueberdb.OpRemove, Key: "stale"},
	}
	bulkDone := make(chan error, 1)
	d.DoBulk(ops, func(err error) { bulkDone <- err })
	a.NoError(<-bulkDone)

	for key, want := range map[string]string{"k1": "v1", "k2": "v2"} {
		getDone := make(chan *string, 1)
		d.Get(key, func(v *string, err error) { getDone <- v })
		v := <-getDone
		if a.NotNil(v) {
			a.Equal(want, *v)
		}
	}

	getDone := make(chan *string, 1)
	d.Get("stale", func(v *string, err error) { getDone <- v })
	a.Nil(<-getDone)
}

// DoBulkOrdering verifies ops within a bulk apply in the order given: a
// set followed by a remove of the same key leaves it removed.
func (dt *Tester) DoBulkOrdering(t *testing.T) {
	a := assert.New(t)
	d := dt.init(t)

	ops := []ueberdb.Op{
		{Type: ueberdb.OpSet, Key: "k", Value: "v"},
		{Type: ueberdb.OpRemove, Key: "k"},
	}
	bulkDone := make(chan error, 1)
	d.DoBulk(ops, func(err error) { bulkDone <- err })
	a.NoError(<-bulkDone)

	getDone := make(chan *string, 1)
	d.Get("k", func(v *string, err error) { getDone <- v })
	a.Nil(<-getDone)
}
