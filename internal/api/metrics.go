package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the instrumentation for valve operations.
type Metrics struct {
	registry *prometheus.Registry

	switches     *prometheus.CounterVec
	commFailures *prometheus.CounterVec
	roundTrip    *prometheus.HistogramVec
}

// NewMetrics creates a metrics set on a fresh registry, including the Go
// runtime collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		switches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labflow",
			Name:      "switch_operations_total",
			Help:      "Valve switch operations by device and result.",
		}, []string{"device", "result"}),
		commFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labflow",
			Name:      "comm_failures_total",
			Help:      "Hardware communication failures by device.",
		}, []string{"device"}),
		roundTrip: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "labflow",
			Name:      "hardware_roundtrip_seconds",
			Help:      "Latency of hardware position reads and writes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"device", "op"}),
	}

	registry.MustRegister(
		m.switches,
		m.commFailures,
		m.roundTrip,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSwitch records one switch attempt and its hardware latency.
func (m *Metrics) ObserveSwitch(device string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.switches.WithLabelValues(device, result).Inc()
	m.roundTrip.WithLabelValues(device, "switch").Observe(time.Since(start).Seconds())
}

// ObserveRead records one position read and its hardware latency.
func (m *Metrics) ObserveRead(device string, start time.Time) {
	m.roundTrip.WithLabelValues(device, "read").Observe(time.Since(start).Seconds())
}

// CommFailure counts one lost exchange with the instrument.
func (m *Metrics) CommFailure(device string) {
	m.commFailures.WithLabelValues(device).Inc()
}
