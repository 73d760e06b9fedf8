// Package metrics holds the Prometheus collectors for cleaning and weighting
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "surveyclean"

// Metrics groups the collectors registered on one registry. A nil *Metrics is
// valid and records nothing
type Metrics struct {
	registry       *prometheus.Registry
	cleanPasses    *prometheus.CounterVec
	cellsCorrected *prometheus.CounterVec
	passDuration   *prometheus.HistogramVec
	weightingRuns  prometheus.Counter
}

// New creates the collectors on a fresh registry, together with the Go and
// process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		cleanPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clean_passes_total",
			Help:      "Cleaning passes completed, by mode.",
		}, []string{"mode"}),
		cellsCorrected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_corrected_total",
			Help:      "Cells rewritten by cleaning, by correction kind.",
		}, []string{"kind"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clean_pass_duration_seconds",
			Help:      "Wall time of a cleaning pass.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"mode"}),
		weightingRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weighting_runs_total",
			Help:      "Weighted statistics computations.",
		}),
	}
	reg.MustRegister(
		m.cleanPasses,
		m.cellsCorrected,
		m.passDuration,
		m.weightingRuns,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCleanPass records one finished pass
func (m *Metrics) ObserveCleanPass(mode string, imputed, clamped int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cleanPasses.WithLabelValues(mode).Inc()
	m.passDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	m.cellsCorrected.WithLabelValues("imputed").Add(float64(imputed))
	m.cellsCorrected.WithLabelValues("clamped").Add(float64(clamped))
}

// ObserveWeighting records one weighted statistics computation
func (m *Metrics) ObserveWeighting() {
	if m == nil {
		return
	}
	m.weightingRuns.Inc()
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
