package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	DraftsCreated      prometheus.Counter
	FormsReady         prometheus.Counter
	Operations         *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Logins             *prometheus.CounterVec
	RateLimited        *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DraftsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_drafts_created_total",
			Help: "Total number of onboarding drafts started",
		}),
		FormsReady: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_forms_ready_total",
			Help: "Total number of forms seeded from a resolved profile",
		}),
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_operations_total",
			Help: "Form edits by operation and outcome",
		}, []string{"operation", "outcome"}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_validation_failures_total",
			Help: "Profile edits rejected by field validation",
		}, []string{"field"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_logins_total",
			Help: "Login callbacks by outcome",
		}, []string{"outcome"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_rate_limited_total",
			Help: "Requests rejected by a rate limit, by limit class",
		}, []string{"class"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboarding_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// IncrementDraftsCreated counts a new draft.
func (m *Metrics) IncrementDraftsCreated() {
	if m == nil {
		return
	}
	m.DraftsCreated.Inc()
}

// IncrementFormsReady counts a loading → ready transition.
func (m *Metrics) IncrementFormsReady() {
	if m == nil {
		return
	}
	m.FormsReady.Inc()
}

// ObserveOperation counts one form edit.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// IncrementValidationFailures counts a rejected profile edit.
func (m *Metrics) IncrementValidationFailures(field string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(field).Inc()
}

// ObserveLogin counts a login callback.
func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// IncrementRateLimited counts a request rejected with 429.
func (m *Metrics) IncrementRateLimited(class string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(class).Inc()
}

// ObserveRequest records HTTP latency; it satisfies the request middleware's
// LatencyObserver.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}
