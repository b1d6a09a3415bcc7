package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors on a private
// registry so tests can create throwaway instances.
type Metrics struct {
	FramesProcessed   prometheus.Counter
	DetectionFailures prometheus.Counter
	PersonsDetected   prometheus.Counter
	EventsDeleted     prometheus.Counter

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "personcam_frames_processed_total",
			Help: "Total frames that completed the ingestion pipeline",
		}),
		DetectionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "personcam_detection_failures_total",
			Help: "Total frames that failed decoding or model invocation",
		}),
		PersonsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "personcam_persons_detected_total",
			Help: "Total person detections across all processed frames",
		}),
		EventsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "personcam_events_deleted_total",
			Help: "Total detection events deleted via the API",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.FramesProcessed, m.DetectionFailures, m.PersonsDetected, m.EventsDeleted)

	return m
}

// RegisterViewerGauge exposes the current number of connected live viewers.
func (m *Metrics) RegisterViewerGauge(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "personcam_connected_viewers",
			Help: "Currently connected live viewers",
		},
		func() float64 { return float64(count()) },
	))
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
