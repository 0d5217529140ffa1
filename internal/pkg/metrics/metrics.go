package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authweb_submissions_total",
			Help: "Form submissions by form and outcome",
		},
		[]string{"form", "outcome"},
	)

	reconciledErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authweb_reconciled_errors_total",
			Help: "Field errors reconciled from auth service validation failures",
		},
	)

	authServiceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authweb_auth_service_duration_seconds",
			Help:    "Auth service call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"op"},
	)
)

// RecordSubmission counts one submit attempt of form with its outcome.
func RecordSubmission(form, outcome string) {
	submissionsTotal.WithLabelValues(form, outcome).Inc()
}

// RecordReconciledErrors counts field errors produced by one reconciliation.
func RecordReconciledErrors(n int) {
	reconciledErrorsTotal.Add(float64(n))
}

// ObserveAuthCall records the duration of an auth service call.
func ObserveAuthCall(op string, started time.Time) {
	authServiceDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// Handler exposes the prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
