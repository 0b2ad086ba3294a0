package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	transmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "densecode",
			Subsystem: "link",
			Name:      "transmissions_total",
			Help:      "Link transmissions by outcome.",
		},
		[]string{"channel", "outcome"},
	)
	transmissionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "densecode",
			Subsystem: "link",
			Name:      "transmission_duration_seconds",
			Help:      "Wall time of a full transmission.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"channel"},
	)
	packetCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "densecode",
			Subsystem: "link",
			Name:      "packet_calls_total",
			Help:      "Channel invocations, one per packet.",
		},
		[]string{"channel", "outcome"},
	)
	fidelity = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "densecode",
			Subsystem: "link",
			Name:      "fidelity",
			Help:      "Fidelity score of completed transmissions.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
		[]string{"channel", "method"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "densecode",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "densecode",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(transmissions, transmissionDuration, packetCalls, fidelity, httpRequests, httpDuration)
	})
}

func RecordTransmission(channel, outcome string, duration time.Duration) {
	RegisterMetrics()
	transmissions.WithLabelValues(channel, outcome).Inc()
	transmissionDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

func RecordPacketCall(channel string, err error) {
	RegisterMetrics()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	packetCalls.WithLabelValues(channel, outcome).Inc()
}

func ObserveFidelity(channel, method string, score float64) {
	RegisterMetrics()
	fidelity.WithLabelValues(channel, method).Observe(score)
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
