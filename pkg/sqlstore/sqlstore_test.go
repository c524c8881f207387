package sqlstore

import (
	"testing"

	"github.com/jots/ueberDB"
	"github.com/jots/ueberDB/pkg/drivertest"
)

func TestDriver(t *testing.T) {
	dt := drivertest.New(func() ueberdb.Driver {
		return New(":memory:", "store")
	})
	dt.Run(t)
}

func TestDefaultsMemory(t *testing.T) {
	d := New(":memory:", "")
	if d.Defaults() != ueberdb.MemorySettings {
		t.Fatalf("expected MemorySettings for :memory:, got %+v", d.Defaults())
	}
}

func TestDefaultsFile(t *testing.T) {
	d := New("./testdata.db", "")
	if d.Defaults() != ueberdb.DefaultSettings {
		t.Fatalf("expected DefaultSettings for a file DSN, got %+v", d.Defaults())
	}
}
