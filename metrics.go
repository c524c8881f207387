package ueberdb

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsDriver wraps another Driver and records Prometheus counters and
// histograms for every operation it forwards.
type MetricsDriver struct {
	next Driver

	ops          *prometheus.CounterVec
	errors       *prometheus.CounterVec
	bulkSize     prometheus.Histogram
	gcEvictions  prometheus.Counter
	flushLatency prometheus.Histogram
}

// NewMetricsDriver wraps next, registering its metrics on reg. Passing a
// dedicated *prometheus.Registry (rather than the global one) lets
// multiple DBs in the same process each report under their own metric
// family without collector collisions.
func NewMetricsDriver(reg prometheus.Registerer, next Driver) *MetricsDriver {
	d := &MetricsDriver{
		next: next,
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ueberdb_driver_ops_total",
			Help: "Total driver operations, by kind.",
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ueberdb_driver_errors_total",
			Help: "Total driver operation failures, by kind.",
		}, []string{"op"}),
		bulkSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ueberdb_bulk_ops_per_flush",
			Help:    "Number of ops carried by each DoBulk call.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024},
		}),
		gcEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ueberdb_gc_evictions_total",
			Help: "Total clean buffer entries evicted by the garbage collector.",
		}),
		flushLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ueberdb_flush_duration_seconds",
			Help:    "Latency of DoBulk calls issued by a flush.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(d.ops, d.errors, d.bulkSize, d.gcEvictions, d.flushLatency)
	return d
}

// Defaults passes through the wrapped driver's declared settings.
func (d *MetricsDriver) Defaults() Settings {
	return d.next.Defaults()
}

func (d *MetricsDriver) Init(cb func(error)) {
	d.next.Init(func(err error) {
		d.record("init", err)
		cb(err)
	})
}

func (d *MetricsDriver) Get(key string, cb func(value *string, err error)) {
	d.next.Get(key, func(value *string, err error) {
		d.record("get", err)
		cb(value, err)
	})
}

func (d *MetricsDriver) Set(key, value string, cb func(error)) {
	d.next.Set(key, value, func(err error) {
		d.record("set", err)
		cb(err)
	})
}

func (d *MetricsDriver) Remove(key string, cb func(error)) {
	d.next.Remove(key, func(err error) {
		d.record("remove", err)
		cb(err)
	})
}

func (d *MetricsDriver) DoBulk(ops []Op, cb func(error)) {
	timer := prometheus.NewTimer(d.flushLatency)
	d.bulkSize.Observe(float64(len(ops)))
	d.next.DoBulk(ops, func(err error) {
		timer.ObserveDuration()
		d.record("do_bulk", err)
		cb(err)
	})
}

func (d *MetricsDriver) Close(cb func(error)) {
	d.next.Close(func(err error) {
		d.record("close", err)
		cb(err)
	})
}

func (d *MetricsDriver) record(op string, err error) {
	d.ops.WithLabelValues(op).Inc()
	if err != nil {
		d.errors.WithLabelValues(op).Inc()
	}
}

// RecordEviction increments the GC eviction counter by n. DB.gc calls
// this when the driver handed to New is itself a *MetricsDriver; a
// MetricsDriver wrapped inside another driver is not found, and then
// this is unused, since gc itself has no driver to report through.
func (d *MetricsDriver) RecordEviction(n int) {
	d.gcEvictions.Add(float64(n))
}
