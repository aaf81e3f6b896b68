package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the appointment lifecycle.
type BookingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medimeet",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medimeet",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Appointment state transitions by target state and outcome",
		}, []string{"transition", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.transitionsTotal)
	return m
}

// ObserveBooking records a booking attempt outcome (booked, conflict,
// insufficient_credits, error, ...).
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveTransition records a cancel/complete transition outcome.
func (m *BookingMetrics) ObserveTransition(transition, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(transition, outcome).Inc()
}

// CreditMetrics tracks ledger movement.
type CreditMetrics struct {
	transactionsTotal *prometheus.CounterVec
	creditsMoved      *prometheus.CounterVec
}

func NewCreditMetrics(reg prometheus.Registerer) *CreditMetrics {
	m := &CreditMetrics{
		transactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medimeet",
			Subsystem: "credits",
			Name:      "transactions_total",
			Help:      "Ledger transactions appended, by type",
		}, []string{"type"}),
		creditsMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medimeet",
			Subsystem: "credits",
			Name:      "moved_total",
			Help:      "Absolute credits moved through the ledger, by type",
		}, []string{"type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transactionsTotal, m.creditsMoved)
	return m
}

// ObserveTransaction records one appended ledger row and its magnitude.
func (m *CreditMetrics) ObserveTransaction(txType string, amount int) {
	if m == nil {
		return
	}
	if amount < 0 {
		amount = -amount
	}
	m.transactionsTotal.WithLabelValues(txType).Inc()
	m.creditsMoved.WithLabelValues(txType).Add(float64(amount))
}

// ScheduleMetrics tracks slot generation.
type ScheduleMetrics struct {
	generationsTotal *prometheus.CounterVec
	generationTime   prometheus.Histogram
}

func NewScheduleMetrics(reg prometheus.Registerer) *ScheduleMetrics {
	m := &ScheduleMetrics{
		generationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medimeet",
			Subsystem: "schedule",
			Name:      "generations_total",
			Help:      "Slot schedule requests by source (generated, cache_hit)",
		}, []string{"source"}),
		generationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medimeet",
			Subsystem: "schedule",
			Name:      "generation_seconds",
			Help:      "Latency of slot schedule generation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.generationsTotal, m.generationTime)
	return m
}

// ObserveGeneration records a schedule request and, for generated
// schedules, the time it took.
func (m *ScheduleMetrics) ObserveGeneration(source string, seconds float64) {
	if m == nil {
		return
	}
	m.generationsTotal.WithLabelValues(source).Inc()
	if source == "generated" {
		m.generationTime.Observe(seconds)
	}
}
