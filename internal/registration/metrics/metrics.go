package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module.
type Metrics struct {
	RequestsSubmitted  prometheus.Counter
	RequestsRejected   prometheus.Counter
	ValidationDuration prometheus.Histogram
}

// New creates a new Metrics instance with all registration metrics registered.
func New() *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "residora_registration_requests_total",
			Help: "Total number of registration requests accepted",
		}),
		RequestsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "residora_registration_rejections_total",
			Help: "Total number of registration attempts rejected by validation",
		}),
		ValidationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "residora_registration_validation_duration_seconds",
			Help:    "Duration of registration validation runs",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementSubmitted records an accepted registration request.
func (m *Metrics) IncrementSubmitted() {
	m.RequestsSubmitted.Inc()
}

// IncrementRejected records a registration attempt rejected by validation.
func (m *Metrics) IncrementRejected() {
	m.RequestsRejected.Inc()
}

// ObserveValidation records the duration of a validation run.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveValidation(start time.Time) {
	m.ValidationDuration.Observe(time.Since(start).Seconds())
}
