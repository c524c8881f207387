// Command ueberdbctl is a small CLI for poking at a ueberdb-backed
// store: get, set, remove or flush a single key against a chosen
// backend driver.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jots/ueberDB"
	"github.com/jots/ueberDB/pkg/memdriver"
	"github.com/jots/ueberDB/pkg/sqlstore"
)

var (
	flBackend = flag.String("backend", "sqlite", "driver to use: sqlite or memory")
	flDSN     = flag.String("dsn", "./ueberdb.db", "data source name for the sqlite backend")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	driver, err := buildDriver()
	if err != nil {
		logger.Fatal("build driver", zap.Error(err))
	}

	db, err := ueberdb.New(driver)
	if err != nil {
		logger.Fatal("new db", zap.Error(err))
	}

	if err := await(db.Init); err != nil {
		logger.Fatal("init", zap.Error(err))
	}
	defer func() {
		if err := await(db.Close); err != nil {
			logger.Error("close", zap.Error(err))
		}
	}()

	switch cmd := args[0]; cmd {
	case "get":
		requireArgs(args, 2, "get <key>")
		runGet(db, args[1])
	case "set":
		requireArgs(args, 3, "set <key> <value>")
		runSet(db, args[1], args[2])
	case "remove":
		requireArgs(args, 2, "remove <key>")
		runRemove(db, args[1])
	case "flush":
		if err := await(db.Flush); err != nil {
			logger.Fatal("flush", zap.Error(err))
		}
	default:
		usage()
		os.Exit(2)
	}
}

func buildDriver() (ueberdb.Driver, error) {
	switch *flBackend {
	case "sqlite":
		return sqlstore.New(*flDSN, ""), nil
	case "memory":
		return memdriver.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", *flBackend)
	}
}

func runGet(db *ueberdb.DB, key string) {
	done := make(chan struct{})
	db.Get(key, func(value interface{}, err error) {
		defer close(done)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if value == nil {
			fmt.Fprintln(os.Stderr, "not found")
			os.Exit(1)
		}
		fmt.Printf("%v\n", value)
	})
	<-done
}

func runSet(db *ueberdb.DB, key, value string) {
	done := make(chan struct{})
	db.Set(key, value, func(err error) {
		defer close(done)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	})
	<-done
}

func runRemove(db *ueberdb.DB, key string) {
	done := make(chan struct{})
	db.Remove(key, func(err error) {
		defer close(done)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	})
	<-done
}

func await(f func(func(error))) error {
	done := make(chan error, 1)
	f(func(err error) { done <- err })
	return <-done
}

func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintln(os.Stderr, "usage: ueberdbctl "+usage)
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ueberdbctl [-backend sqlite|memory] [-dsn path] <get|set|remove|flush> [args]")
}
