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

// Package collector runs one Scrutiny collection pass per scrape.
package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/logger"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/metrics"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/scrutiny"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/synthesizer"
)

// ErrSummaryUnavailable is reported by the readiness check after a pass that
// could not fetch the device summary.
var ErrSummaryUnavailable = errors.New("last collection pass could not fetch the device summary")

// SummaryFetcher fetches the device summary keyed by WWN.
type SummaryFetcher interface {
	GetSummary(ctx context.Context) (map[string]scrutiny.DeviceSummary, error)
}

// DetailFetcher fetches one device's detail record, reporting false on failure.
type DetailFetcher interface {
	Fetch(ctx context.Context, wwn string) (*scrutiny.DeviceDetails, bool)
}

// Collector implements prometheus.Collector. Every Collect runs a fresh pass.
type Collector struct {
	summary     SummaryFetcher
	details     DetailFetcher
	synthesizer *synthesizer.Synthesizer
	metrics     *metrics.Metrics
	log         *zap.SugaredLogger

	summaryFailed atomic.Bool
}

var _ prometheus.Collector = (*Collector)(nil)

// New creates a Collector. m may be nil.
func New(summary SummaryFetcher, details DetailFetcher, synth *synthesizer.Synthesizer, m *metrics.Metrics) *Collector {
	return &Collector{
		summary:     summary,
		details:     details,
		synthesizer: synth,
		metrics:     m,
		log:         logger.For(logger.ComponentCollector),
	}
}

// Pass fetches the summary and every device's details, then synthesizes the
// metric families. A failed summary fetch yields no families at all.
func (c *Collector) Pass(ctx context.Context) []*synthesizer.Family {
	start := time.Now()

	summary, err := c.summary.GetSummary(ctx)
	if err != nil {
		c.log.Errorf("Failed to fetch Scrutiny summary: %v", err)
		c.summaryFailed.Store(true)
		c.metrics.ObserveCollection(time.Since(start), false)
		return nil
	}
	c.summaryFailed.Store(false)
	c.log.Debugf("Found %d devices", len(summary))

	details := make(map[string]*scrutiny.DeviceDetails, len(summary))
	for wwn := range summary {
		if record, ok := c.details.Fetch(ctx, wwn); ok {
			details[wwn] = record
		}
	}
	c.log.Debugf("Fetched details for %d of %d devices", len(details), len(summary))

	families := c.synthesizer.Synthesize(summary, details)
	c.metrics.ObserveCollection(time.Since(start), true)
	return families
}

// Describe sends nothing; the family set depends on upstream data, which
// makes this an unchecked collector.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect runs a pass and converts its families to constant metrics.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, family := range c.Pass(context.Background()) {
		if len(family.Samples) == 0 {
			continue
		}

		desc := prometheus.NewDesc(family.Name, family.Help, family.LabelNames, nil)
		for _, sample := range family.Samples {
			metric, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, sample.Value, sample.LabelValues...)
			if err != nil {
				c.log.Debugf("Skipping sample of %s: %v", family.Name, err)
				continue
			}
			ch <- metric
		}
	}
}

// ReadinessCheck fails while the last pass could not fetch the summary.
func (c *Collector) ReadinessCheck() healthcheck.Check {
	return func() error {
		if c.summaryFailed.Load() {
			return ErrSummaryUnavailable
		}
		return nil
	}
}
