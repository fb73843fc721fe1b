package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lounge",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	draftOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lounge",
			Name:      "draft_operations_total",
			Help:      "Draft lifecycle operations by kind (save, clear, restore).",
		},
		[]string{"op"},
	)

	submissions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lounge",
			Name:      "booking_submissions_total",
			Help:      "Successfully submitted booking requests.",
		},
	)

	openState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lounge",
			Name:      "open",
			Help:      "1 while the posted hours say open, 0 while closed.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, draftOps, submissions, openState)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncDraftOp counts a draft save/clear/restore.
func IncDraftOp(op string) {
	draftOps.WithLabelValues(op).Inc()
}

// IncSubmission counts a successful booking submission.
func IncSubmission() {
	submissions.Inc()
}

// SetOpen reflects the current open/closed state on the gauge.
func SetOpen(open bool) {
	if open {
		openState.Set(1)
		return
	}
	openState.Set(0)
}
