package memdriver

import (
	"testing"

	"github.com/jots/ueberDB"
	"github.com/jots/ueberDB/pkg/drivertest"
)

func TestDriver(t *testing.T) {
	dt := drivertest.New(func() ueberdb.Driver {
		return New()
	})
	dt.Run(t)
}
