package redisdriver

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jots/ueberDB"
	"github.com/jots/ueberDB/pkg/drivertest"
)

func TestDriver(t *testing.T) {
	mr := miniredis.RunT(t)

	dt := drivertest.New(func() ueberdb.Driver {
		mr.FlushAll()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return New(client)
	})
	dt.Run(t)
}

func TestPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	d := New(client, WithPrefix("ueberdb"))

	initDone := make(chan error, 1)
	d.Init(func(err error) { initDone <- err })
	if err := <-initDone; err != nil {
		t.Fatalf("init: %v", err)
	}

	setDone := make(chan error, 1)
	d.Set("k", "v", func(err error) { setDone <- err })
	if err := <-setDone; err != nil {
		t.Fatalf("set: %v", err)
	}

	if !mr.Exists("ueberdb:k") {
		t.Fatalf("expected prefixed key ueberdb:k in miniredis")
	}
}
