package ueberdb

import (
	"go.uber.org/zap"
)

// LoggingDriver wraps another Driver with structured activity logging.
// It implements Driver itself, so it composes like any other driver:
// wrap the real one, then hand the result to New.
type LoggingDriver struct {
	next Driver
	l    *zap.Logger
}

// NewLoggingDriver wraps next with logging via l.
func NewLoggingDriver(l *zap.Logger, next Driver) *LoggingDriver {
	return &LoggingDriver{next: next, l: l}
}

// Defaults passes through the wrapped driver's declared settings.
func (d *LoggingDriver) Defaults() Settings {
	return d.next.Defaults()
}

// Init logs initialization.
func (d *LoggingDriver) Init(cb func(error)) {
	d.next.Init(func(err error) {
		if err != nil {
			d.l.Error("init", zap.Error(err))
		} else {
			d.l.Info("init")
		}
		cb(err)
	})
}

// Get logs a read.
func (d *LoggingDriver) Get(key string, cb func(value *string, err error)) {
	d.next.Get(key, func(value *string, err error) {
		if err != nil {
			d.l.Error("get", zap.String("key", key), zap.Error(err))
		} else {
			d.l.Debug("get", zap.String("key", key), zap.Bool("hit", value != nil))
		}
		cb(value, err)
	})
}

// Set logs a write.
func (d *LoggingDriver) Set(key, value string, cb func(error)) {
	d.next.Set(key, value, func(err error) {
		d.log("set", key, err)
		if cb != nil {
			cb(err)
			return
		}
		if err != nil {
			d.l.Error("set callback missing; error dropped by caller", zap.String("key", key), zap.Error(err))
		}
	})
}

// Remove logs a delete.
func (d *LoggingDriver) Remove(key string, cb func(error)) {
	d.next.Remove(key, func(err error) {
		d.log("remove", key, err)
		if cb != nil {
			cb(err)
			return
		}
		if err != nil {
			d.l.Error("remove callback missing; error dropped by caller", zap.String("key", key), zap.Error(err))
		}
	})
}

// DoBulk logs a bulk operation, including its size.
func (d *LoggingDriver) DoBulk(ops []Op, cb func(error)) {
	d.next.DoBulk(ops, func(err error) {
		if err != nil {
			d.l.Error("do_bulk", zap.Int("ops", len(ops)), zap.Error(err))
		} else {
			d.l.Debug("do_bulk", zap.Int("ops", len(ops)))
		}
		cb(err)
	})
}

// Close logs shutdown.
func (d *LoggingDriver) Close(cb func(error)) {
	d.next.Close(func(err error) {
		if err != nil {
			d.l.Error("close", zap.Error(err))
		} else {
			d.l.Info("close")
		}
		cb(err)
	})
}

func (d *LoggingDriver) log(op, key string, err error) {
	if err != nil {
		d.l.Error(op, zap.String("key", key), zap.Error(err))
		return
	}
	d.l.Debug(op, zap.String("key", key))
}
