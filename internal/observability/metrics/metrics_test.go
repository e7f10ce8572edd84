package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveBookingCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("confirmed")
	m.ObserveBooking("confirmed")
	m.ObserveBooking("slot_unavailable")

	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("confirmed")); got != 2 {
		t.Fatalf("expected 2 confirmed bookings, got %v", got)
	}
	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("slot_unavailable")); got != 1 {
		t.Fatalf("expected 1 unavailable outcome, got %v", got)
	}
}

func TestObserveCacheLookup(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)

	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")); got != 1 {
		t.Fatalf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")); got != 2 {
		t.Fatalf("expected 2 misses, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking("confirmed")
	m.ObserveCancellation("client", "denied")
	m.ObserveReview("created")
	m.ObserveCacheLookup(true)
	m.ObserveLatency("book", 0.1)
}
