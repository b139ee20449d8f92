package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "attachtrack"

var (
	ingestRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_records_total",
		Help:      "Roster records processed by bulk uploads, by entity and outcome",
	}, []string{"entity", "outcome"})

	ingestBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_batches_total",
		Help:      "Bulk upload requests by entity and outcome",
	}, []string{"entity", "outcome"})

	loginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome",
	}, []string{"outcome"})

	attachmentTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attachment_transitions_total",
		Help:      "Attachment status changes by target status",
	}, []string{"to"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status code",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})
)

// Batch outcomes
const (
	BatchRejected  = "rejected"
	BatchFailed    = "failed"
	BatchCommitted = "committed"
)

// RecordIngest counts the records a committed batch created and skipped.
func RecordIngest(entity string, created, skipped int) {
	ingestRecordsTotal.WithLabelValues(entity, "created").Add(float64(created))
	ingestRecordsTotal.WithLabelValues(entity, "skipped").Add(float64(skipped))
}

// RecordBatch counts one upload request.
func RecordBatch(entity, outcome string) {
	ingestBatchesTotal.WithLabelValues(entity, outcome).Inc()
}

// RecordLogin counts a login attempt: "ok", "reset", "failed" or "limited".
func RecordLogin(outcome string) {
	loginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordTransition counts an attachment moving into status to.
func RecordTransition(to string) {
	attachmentTransitionsTotal.WithLabelValues(to).Inc()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
