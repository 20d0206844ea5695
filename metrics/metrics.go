// Package metrics supplies Sink implementations for flashsort.Engine: an
// in-memory MapSink for tests and short-lived CLI runs, and a PromSink
// that exports the same four counters to Prometheus.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// MapSink accumulates flashsort.Sink counters in plain atomics. Safe for
// concurrent reads while a sort is in flight; flashsort itself drives one
// sort from a single goroutine, but a caller may want to poll counters from
// another one (e.g. a progress reporter).
type MapSink struct {
	reads    atomic.Int64
	compares atomic.Int64
	writes   atomic.Int64
	memcpys  atomic.Int64
}

func (m *MapSink) AddReads(n int)   { m.reads.Add(int64(n)) }
func (m *MapSink) AddCompar(n int)  { m.compares.Add(int64(n)) }
func (m *MapSink) AddWrites(n int)  { m.writes.Add(int64(n)) }
func (m *MapSink) AddMemcpys(n int) { m.memcpys.Add(int64(n)) }

func (m *MapSink) Reads() int64    { return m.reads.Load() }
func (m *MapSink) Compares() int64 { return m.compares.Load() }
func (m *MapSink) Writes() int64   { return m.writes.Load() }
func (m *MapSink) Memcpys() int64  { return m.memcpys.Load() }

// PromSink routes the same four counters into a caller-supplied Prometheus
// registry instead of a DefaultRegisterer global, so a process can run more
// than one sort, each with its own registry, without "duplicate metrics
// collector registration" panics.
type PromSink struct {
	reads    prometheus.Counter
	compares prometheus.Counter
	writes   prometheus.Counter
	memcpys  prometheus.Counter
}

// NewPromSink registers flashsort's four counters under reg, labeled with
// job, and returns a Sink ready to be passed to flashsort.WithSink.
func NewPromSink(reg prometheus.Registerer, job string) *PromSink {
	labels := prometheus.Labels{"job": job}
	s := &PromSink{
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flashsort_page_reads_total",
			Help:        "Pages read from the input during a sort.",
			ConstLabels: labels,
		}),
		compares: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flashsort_comparisons_total",
			Help:        "Key comparisons performed during a sort.",
			ConstLabels: labels,
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flashsort_page_writes_total",
			Help:        "Pages written to the output during a sort.",
			ConstLabels: labels,
		}),
		memcpys: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flashsort_record_copies_total",
			Help:        "Records copied out of the input during a sort.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(s.reads, s.compares, s.writes, s.memcpys)
	return s
}

func (s *PromSink) AddReads(n int)   { s.reads.Add(float64(n)) }
func (s *PromSink) AddCompar(n int)  { s.compares.Add(float64(n)) }
func (s *PromSink) AddWrites(n int)  { s.writes.Add(float64(n)) }
func (s *PromSink) AddMemcpys(n int) { s.memcpys.Add(float64(n)) }
