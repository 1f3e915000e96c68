// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics holds the exporter's own operational metrics. They live on
// the same registry as the synthesized device metrics but are owned by the
// caller, never by a package-level default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "scrutiny"
	subsystem = "exporter"

	// EndpointSummary labels requests against /api/summary.
	EndpointSummary = "summary"
	// EndpointDetails labels requests against /api/device/{wwn}/details.
	EndpointDetails = "details"

	OutcomeSuccess = "success"
	OutcomeError   = "error"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics groups the exporter's self-observability series.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	collectionDuration prometheus.Histogram
	lastSuccess        prometheus.Gauge
	upstreamRequests   *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
}

// New registers the exporter metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		collectionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "collection_duration_seconds",
				Help:      "Wall time of one collection pass against the Scrutiny API",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		lastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "last_collection_success",
				Help:      "Whether the last collection pass fetched the device summary (1) or not (0)",
			},
		),
		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "upstream_requests_total",
				Help:      "Requests issued to the Scrutiny API by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_lookups_total",
				Help:      "Device detail cache lookups by result",
			},
			[]string{"result"},
		),
	}

	for _, endpoint := range []string{EndpointSummary, EndpointDetails} {
		for _, outcome := range []string{OutcomeSuccess, OutcomeError} {
			m.upstreamRequests.WithLabelValues(endpoint, outcome).Add(0)
		}
	}
	m.cacheLookups.WithLabelValues(CacheHit).Add(0)
	m.cacheLookups.WithLabelValues(CacheMiss).Add(0)

	return m
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ObserveCollection records the duration and outcome of a collection pass.
func (m *Metrics) ObserveCollection(duration time.Duration, summaryFetched bool) {
	if m == nil {
		return
	}
	m.collectionDuration.Observe(duration.Seconds())
	if summaryFetched {
		m.lastSuccess.Set(1)
	} else {
		m.lastSuccess.Set(0)
	}
}

// IncUpstreamRequest counts one request against the upstream API.
func (m *Metrics) IncUpstreamRequest(endpoint string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
}

// IncCacheLookup counts one cache lookup.
func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues(CacheHit).Inc()
	} else {
		m.cacheLookups.WithLabelValues(CacheMiss).Inc()
	}
}

// UpstreamRequests exposes the request counter for a single endpoint/outcome pair.
func (m *Metrics) UpstreamRequests(endpoint, outcome string) prometheus.Counter {
	return m.upstreamRequests.WithLabelValues(endpoint, outcome)
}

// CacheLookups exposes the cache lookup counter for a result.
func (m *Metrics) CacheLookups(result string) prometheus.Counter {
	return m.cacheLookups.WithLabelValues(result)
}
