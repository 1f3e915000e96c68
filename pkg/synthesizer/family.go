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

package synthesizer

import (
	"strings"

	"github.com/prometheus/common/model"
	"go.uber.org/zap"
)

// Kind distinguishes numeric gauges from info records.
type Kind int

const (
	// KindGauge families carry numeric samples.
	KindGauge Kind = iota
	// KindInfo families carry value 1 with the payload in labels.
	KindInfo
)

func (k Kind) String() string {
	if k == KindInfo {
		return "info"
	}
	return "gauge"
}

// InfoValueLabel carries the string payload of an info sample.
const InfoValueLabel = "value"

// Sample is one labeled value of a family. LabelValues line up with the
// family's LabelNames.
type Sample struct {
	LabelValues []string
	Value       float64
}

// Family is a named, documented group of samples built for one collection pass.
type Family struct {
	Name       string
	Help       string
	Kind       Kind
	LabelNames []string
	Samples    []Sample

	seen map[string]struct{}
	log  *zap.SugaredLogger
}

func newFamily(name, help string, kind Kind, labelNames []string, log *zap.SugaredLogger) *Family {
	return &Family{
		Name:       name,
		Help:       help,
		Kind:       kind,
		LabelNames: labelNames,
		seen:       map[string]struct{}{},
		log:        log,
	}
}

// add appends a sample unless one with identical label values already exists.
func (f *Family) add(value float64, labelValues ...string) {
	key := strings.Join(labelValues, "\xff")
	if _, dup := f.seen[key]; dup {
		f.log.Debugf("Dropping duplicate sample for %s: %v", f.Name, labelValues)
		return
	}
	f.seen[key] = struct{}{}
	f.Samples = append(f.Samples, Sample{LabelValues: append([]string(nil), labelValues...), Value: value})
}

// registry holds the families created during one traversal, keyed by name and
// kept in creation order.
type registry struct {
	byName map[string]*Family
	order  []*Family
	log    *zap.SugaredLogger
}

func newRegistry(log *zap.SugaredLogger) *registry {
	return &registry{byName: map[string]*Family{}, log: log}
}

// family returns the family called name, creating it on first use.
// It returns nil for invalid names and for names already taken by the other kind.
func (r *registry) family(name, help string, kind Kind, labelNames []string) *Family {
	if existing, ok := r.byName[name]; ok {
		if existing.Kind != kind {
			r.log.Debugf("Skipping %s %s: name already used by a %s family", kind, name, existing.Kind)
			return nil
		}
		return existing
	}

	if !model.IsValidLegacyMetricName(name) {
		r.log.Debugf("Skipping invalid metric name %q", name)
		return nil
	}

	f := newFamily(name, help, kind, labelNames, r.log)
	r.byName[name] = f
	r.order = append(r.order, f)
	return f
}

// families returns gauge families before info families, each in creation order.
func (r *registry) families() []*Family {
	out := make([]*Family, 0, len(r.order))
	for _, kind := range []Kind{KindGauge, KindInfo} {
		for _, f := range r.order {
			if f.Kind == kind {
				out = append(out, f)
			}
		}
	}
	return out
}
