package syncdriver

import (
	"testing"

	"github.com/jots/ueberDB"
	"github.com/jots/ueberDB/pkg/drivertest"
	"github.com/jots/ueberDB/pkg/memdriver"
)

func TestDriver(t *testing.T) {
	dt := drivertest.New(func() ueberdb.Driver {
		return New(memdriver.New(), memdriver.New())
	})
	dt.Run(t)
}

func TestReadWarmsFrontDriver(t *testing.T) {
	front := memdriver.New()
	authority := memdriver.New()
	d := New(front, authority)

	initDone := make(chan error, 1)
	d.Init(func(err error) { initDone <- err })
	<-initDone

	setDone := make(chan error, 1)
	authority.Set("k", "v", func(err error) { setDone <- err })
	<-setDone

	getDone := make(chan *string, 1)
	d.Get("k", func(v *string, err error) { getDone <- v })
	v := <-getDone
	if v == nil || *v != "v" {
		t.Fatalf("expected synced get to return %q, got %v", "v", v)
	}

	frontGetDone := make(chan *string, 1)
	front.Get("k", func(v *string, err error) { frontGetDone <- v })
	fv := <-frontGetDone
	if fv == nil || *fv != "v" {
		t.Fatalf("expected front driver to be warmed with %q, got %v", "v", fv)
	}
}
