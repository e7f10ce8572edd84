package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flows.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	cancellationsTotal *prometheus.CounterVec
	reviewsTotal       *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	bookingLatency     *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixloop",
			Subsystem: "bookings",
			Name:      "total",
			Help:      "Total booking attempts",
		}, []string{"outcome"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixloop",
			Subsystem: "bookings",
			Name:      "cancellations_total",
			Help:      "Total cancellation attempts",
		}, []string{"actor", "outcome"}),
		reviewsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixloop",
			Subsystem: "reviews",
			Name:      "total",
			Help:      "Total review submissions",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fixloop",
			Subsystem: "schedule",
			Name:      "cache_lookups_total",
			Help:      "Schedule snapshot cache lookups",
		}, []string{"result"}),
		bookingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fixloop",
			Subsystem: "bookings",
			Name:      "latency_seconds",
			Help:      "Latency of booking operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.cancellationsTotal, m.reviewsTotal, m.cacheLookups, m.bookingLatency)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCancellation(actor, outcome string) {
	if m == nil {
		return
	}
	m.cancellationsTotal.WithLabelValues(actor, outcome).Inc()
}

func (m *BookingMetrics) ObserveReview(outcome string) {
	if m == nil {
		return
	}
	m.reviewsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingLatency.WithLabelValues(operation).Observe(seconds)
}
