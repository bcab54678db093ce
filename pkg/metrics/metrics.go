// Package metrics exposes the Prometheus instrumentation shared by the
// ingestion pipeline, confirmation engine, and search & authorization
// engine. Every label set here is deliberately low-cardinality: free-form
// strings (error messages, arbitrary field names) are passed through
// Sanitize* first so a misbehaving caller cannot blow up the label space.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every counter/histogram the service records. One instance
// is constructed at startup and threaded into each component.
type Metrics struct {
	IngestionTasksTotal    *prometheus.CounterVec
	IngestionStageDuration *prometheus.HistogramVec
	ConfirmationsTotal     *prometheus.CounterVec
	QualityCheckFailures   *prometheus.CounterVec
	SearchQueriesTotal     *prometheus.CounterVec
	GraphOperationDuration *prometheus.HistogramVec
	ObjectOperationDuration *prometheus.HistogramVec
	AuditQueueDropped      prometheus.Counter
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInFlight   prometheus.Gauge
}

// NewMetrics registers every metric on the default Prometheus registerer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegistry(namespace, "", prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry registers every metric on registry, letting tests
// use a throwaway *prometheus.Registry instead of the process-wide default.
func NewMetricsWithRegistry(namespace, subsystem string, registry prometheus.Registerer) *Metrics {
	factory := prometheusFactory{namespace: namespace, subsystem: subsystem, registry: registry}

	return &Metrics{
		IngestionTasksTotal: factory.counterVec(
			"ingestion_tasks_total",
			"Total OCR ingestion tasks processed, by pipeline stage and outcome.",
			[]string{"stage", "status"},
		),
		IngestionStageDuration: factory.histogramVec(
			"ingestion_stage_duration_seconds",
			"Duration of each ingestion pipeline stage.",
			prometheus.DefBuckets,
			[]string{"stage"},
		),
		ConfirmationsTotal: factory.counterVec(
			"confirmations_total",
			"Total document confirmation attempts, by outcome.",
			[]string{"status"},
		),
		QualityCheckFailures: factory.counterVec(
			"quality_check_failures_total",
			"Total quality check field failures, by field and reason.",
			[]string{"field", "reason"},
		),
		SearchQueriesTotal: factory.counterVec(
			"search_queries_total",
			"Total search engine queries, by operation and outcome.",
			[]string{"operation", "status"},
		),
		GraphOperationDuration: factory.histogramVec(
			"graph_operation_duration_seconds",
			"Duration of graph store operations.",
			prometheus.DefBuckets,
			[]string{"operation"},
		),
		ObjectOperationDuration: factory.histogramVec(
			"object_operation_duration_seconds",
			"Duration of object store operations.",
			prometheus.DefBuckets,
			[]string{"operation"},
		),
		AuditQueueDropped: factory.counter(
			"audit_queue_dropped_total",
			"Total download-audit records dropped because the background queue was full.",
		),
		HTTPRequestDuration: factory.histogramVec(
			"http_request_duration_seconds",
			"Duration of HTTP requests, by normalized route, method, and status.",
			prometheus.DefBuckets,
			[]string{"endpoint", "method", "status"},
		),
		HTTPRequestsInFlight: factory.gauge(
			"http_requests_in_flight",
			"HTTP requests currently being served.",
		),
	}
}

type prometheusFactory struct {
	namespace string
	subsystem string
	registry  prometheus.Registerer
}

func (f prometheusFactory) counterVec(name, help string, labels []string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: f.namespace,
		Subsystem: f.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	f.registry.MustRegister(vec)
	return vec
}

func (f prometheusFactory) counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: f.namespace,
		Subsystem: f.subsystem,
		Name:      name,
		Help:      help,
	})
	f.registry.MustRegister(c)
	return c
}

func (f prometheusFactory) gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: f.namespace,
		Subsystem: f.subsystem,
		Name:      name,
		Help:      help,
	})
	f.registry.MustRegister(g)
	return g
}

func (f prometheusFactory) histogramVec(name, help string, buckets []float64, labels []string) *prometheus.HistogramVec {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: f.namespace,
		Subsystem: f.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	f.registry.MustRegister(vec)
	return vec
}
