package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMapSinkAccumulates(t *testing.T) {
	var m MapSink
	m.AddReads(3)
	m.AddCompar(10)
	m.AddWrites(1)
	m.AddMemcpys(7)
	m.AddReads(2)

	if m.Reads() != 5 {
		t.Fatalf("Reads() = %d, want 5", m.Reads())
	}
	if m.Compares() != 10 {
		t.Fatalf("Compares() = %d, want 10", m.Compares())
	}
	if m.Writes() != 1 {
		t.Fatalf("Writes() = %d, want 1", m.Writes())
	}
	if m.Memcpys() != 7 {
		t.Fatalf("Memcpys() = %d, want 7", m.Memcpys())
	}
}

func TestPromSinkRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPromSink(reg, "test-job")

	s.AddReads(4)
	s.AddCompar(9)

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var gotReads float64
	for _, mf := range metricFamilies {
		if mf.GetName() != "flashsort_page_reads_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			gotReads = m.GetCounter().GetValue()
		}
	}
	if gotReads != 4 {
		t.Fatalf("flashsort_page_reads_total = %v, want 4", gotReads)
	}
}

func TestPromSinkPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPromSink(reg, "dup")

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic registering the same job twice against one registry")
		}
	}()
	NewPromSink(reg, "dup")
}
