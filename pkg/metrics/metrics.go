package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	IdentitiesRegistered prometheus.Counter
	LoginsTotal          *prometheus.CounterVec
	ProfilesSaved        *prometheus.CounterVec
	IllnessesRecorded    prometheus.Counter
	MessagesSent         prometheus.Counter
	DocumentsUploaded    prometheus.Counter
	DocumentsDeleted     prometheus.Counter
	BlobStoreErrors      *prometheus.CounterVec

	DBQueryDuration *prometheus.HistogramVec

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewCollector registers every metric on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func NewCollector(serviceName string, reg *prometheus.Registry) *Collector {
	ns := strings.ReplaceAll(serviceName, "-", "_")
	f := promauto.With(reg)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		IdentitiesRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "auth",
			Name:      "identities_registered_total",
			Help:      "Total number of identities registered.",
		}),

		LoginsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),

		ProfilesSaved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "clinical",
			Name:      "profiles_saved_total",
			Help:      "Profile creates and updates by kind.",
		}, []string{"kind"}),

		IllnessesRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "clinical",
			Name:      "illnesses_recorded_total",
			Help:      "Total illness records created.",
		}),

		MessagesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "clinical",
			Name:      "messages_sent_total",
			Help:      "Total chat messages written.",
		}),

		DocumentsUploaded: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "insurance",
			Name:      "documents_uploaded_total",
			Help:      "Total insurance documents uploaded.",
		}),

		DocumentsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "insurance",
			Name:      "documents_deleted_total",
			Help:      "Total insurance documents deleted.",
		}),

		BlobStoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "insurance",
			Name:      "blob_store_errors_total",
			Help:      "Blob store failures by operation.",
		}, []string{"operation"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation", "table"}),

		AuditEntriesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),

		gatherer: reg,
	}
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
