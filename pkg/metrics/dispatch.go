package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records supplier notification outcomes.
type DispatchMetrics struct {
	emails   *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supplier_emails_total",
		Help: "Supplier notification attempts by outcome.",
	}, []string{"status"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_duration_seconds",
		Help:    "Duration of one order dispatch run in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(emails, duration)
	return &DispatchMetrics{emails: emails, duration: duration}
}

// IncEmail increments the attempt counter for the given outcome.
func (d *DispatchMetrics) IncEmail(status string) {
	if d == nil || d.emails == nil {
		return
	}
	d.emails.WithLabelValues(status).Inc()
}

// ObserveDispatch records the duration of one dispatch run.
func (d *DispatchMetrics) ObserveDispatch(duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.Observe(duration.Seconds())
}
