// Package metrics exposes Prometheus instrumentation for the registration
// workflow. Construct once at startup; services treat a nil *Metrics as
// "instrumentation disabled" so unit tests can omit it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registration workflow instruments.
type Metrics struct {
	registrations     *prometheus.CounterVec
	profileAttempts   prometheus.Counter
	reconcileOutcomes *prometheus.CounterVec
	workflowDuration  prometheus.Histogram
}

// New creates and registers all registration metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_registrations_total",
			Help: "Registration attempts by terminal outcome.",
		}, []string{"outcome"}),
		profileAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_profile_create_attempts_total",
			Help: "Individual profile creation attempts, including retries.",
		}),
		reconcileOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_reconcile_total",
			Help: "Partial-registration repair attempts by outcome.",
		}, []string{"outcome"}),
		workflowDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "registrar_registration_duration_seconds",
			Help:    "End-to-end RegisterAccount duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Registration outcomes.
const (
	OutcomeSucceeded   = "succeeded"
	OutcomeConflict    = "conflict"
	OutcomeValidation  = "validation"
	OutcomeUnavailable = "store_unavailable"
	OutcomePartial     = "partial"
)

func (m *Metrics) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordProfileAttempt() {
	if m == nil {
		return
	}
	m.profileAttempts.Inc()
}

func (m *Metrics) RecordReconcile(outcome string) {
	if m == nil {
		return
	}
	m.reconcileOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveWorkflowDuration(seconds float64) {
	if m == nil {
		return
	}
	m.workflowDuration.Observe(seconds)
}
