package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ruleout-server/internal/domain/chat"
)

const namespace = "ruleout"

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint", "status"},
	)

	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "active_streams",
			Help:      "Chat streams currently open",
		},
	)

	UpstreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "upstream_events_total",
			Help:      "Q&A stream events received, by status",
		},
		[]string{"status"},
	)

	StreamOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "stream_outcomes_total",
			Help:      "Finished chat streams, by outcome",
		},
		[]string{"outcome"},
	)

	GuestRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guest",
			Name:      "rejections_total",
			Help:      "Guest questions refused after the free limit",
		},
	)

	TranscriptionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recordings",
			Name:      "transcription_duration_seconds",
			Help:      "Wall time of transcription requests",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"result"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Object storage calls, by backend, operation and result",
		},
		[]string{"backend", "operation", "result"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Object storage call latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
)

// RecordRequest records a completed HTTP request.
func RecordRequest(method, endpoint, status string, duration float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration)
}

// RecordGuestRejection is the guest limiter reject hook.
func RecordGuestRejection() {
	GuestRejectionsTotal.Inc()
}

// RecordTranscription observes one transcription call.
func RecordTranscription(elapsed time.Duration, ok bool) {
	TranscriptionDuration.WithLabelValues(result(ok)).Observe(elapsed.Seconds())
}

// RecordStorageOp observes one object storage call.
func RecordStorageOp(backend, op string, err error, elapsed time.Duration) {
	StorageOperationsTotal.WithLabelValues(backend, op, result(err == nil)).Inc()
	StorageOperationDuration.WithLabelValues(backend, op).Observe(elapsed.Seconds())
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// ChatObserver feeds chat stream lifecycle into the collectors.
type ChatObserver struct{}

var _ chat.Observer = ChatObserver{}

func (ChatObserver) StreamStarted() {
	ActiveStreams.Inc()
}

func (ChatObserver) StreamFinished(outcome string) {
	ActiveStreams.Dec()
	StreamOutcomesTotal.WithLabelValues(outcome).Inc()
}

func (ChatObserver) EventReceived(status chat.Status) {
	UpstreamEventsTotal.WithLabelValues(string(status)).Inc()
}
