package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// ErrandMetrics records request-lifecycle and ledger activity.
type ErrandMetrics struct {
	requestsCreated    prometheus.Counter
	requestsCancelled  prometheus.Counter
	requestsClaimed    prometheus.Counter
	deliveriesRecorded prometheus.Counter
	paymentsRecorded   prometheus.Counter
	deliveryTotals     prometheus.Histogram
}

// NewErrandMetrics registers the errand metrics on the provided registerer.
func NewErrandMetrics(reg prometheus.Registerer) *ErrandMetrics {
	if reg == nil {
		return &ErrandMetrics{}
	}
	requestsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "requests_created_total",
		Help: "Request items created.",
	})
	requestsCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "requests_cancelled_total",
		Help: "Request items cancelled.",
	})
	requestsClaimed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "requests_claimed_total",
		Help: "Request items claimed by trips.",
	})
	deliveriesRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deliveries_recorded_total",
		Help: "Deliveries recorded against claimed requests.",
	})
	paymentsRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Manual inter-house payments recorded.",
	})
	deliveryTotals := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "delivery_total_price",
		Help:    "Distribution of per-delivery total prices.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})
	reg.MustRegister(requestsCreated, requestsCancelled, requestsClaimed, deliveriesRecorded, paymentsRecorded, deliveryTotals)
	return &ErrandMetrics{
		requestsCreated:    requestsCreated,
		requestsCancelled:  requestsCancelled,
		requestsClaimed:    requestsClaimed,
		deliveriesRecorded: deliveriesRecorded,
		paymentsRecorded:   paymentsRecorded,
		deliveryTotals:     deliveryTotals,
	}
}

// IncRequestCreated counts a newly created request item.
func (m *ErrandMetrics) IncRequestCreated() {
	if m == nil || m.requestsCreated == nil {
		return
	}
	m.requestsCreated.Inc()
}

// IncRequestCancelled counts a cancelled request item.
func (m *ErrandMetrics) IncRequestCancelled() {
	if m == nil || m.requestsCancelled == nil {
		return
	}
	m.requestsCancelled.Inc()
}

// AddRequestsClaimed counts requests claimed in a batch.
func (m *ErrandMetrics) AddRequestsClaimed(n int) {
	if m == nil || m.requestsClaimed == nil || n <= 0 {
		return
	}
	m.requestsClaimed.Add(float64(n))
}

// ObserveDelivery counts a recorded delivery and its total price.
func (m *ErrandMetrics) ObserveDelivery(total decimal.Decimal) {
	if m == nil || m.deliveriesRecorded == nil {
		return
	}
	m.deliveriesRecorded.Inc()
	if m.deliveryTotals != nil {
		value, _ := total.Float64()
		m.deliveryTotals.Observe(value)
	}
}

// IncPaymentRecorded counts a manual payment entry.
func (m *ErrandMetrics) IncPaymentRecorded() {
	if m == nil || m.paymentsRecorded == nil {
		return
	}
	m.paymentsRecorded.Inc()
}
