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

// Package synthesizer turns Scrutiny summary and detail records into metric
// families. Synthesis is pure: the same inputs always produce the same
// families in the same order.
package synthesizer

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/logger"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/scrutiny"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/smart"
)

const (
	attributePrefix = "scrutiny_smart_attr_"
	// UnknownProtocol stands in for a missing device protocol.
	UnknownProtocol = "unknown"
)

var (
	deviceInfoLabels = []string{"wwn", "device_name", "model_name", "serial_number", "firmware", "protocol", "host_id", "form_factor"}
	deviceLabels     = []string{"wwn", "device_name", "model_name", "protocol", "host_id"}
	attributeLabels  = append(append([]string{}, deviceLabels...), "attribute_id")
	attributeInfo    = append(append([]string{}, attributeLabels...), InfoValueLabel)
)

// Snapshot is the SMART result chosen for one device in a pass, together with
// the device identity reported by its detail record.
type Snapshot struct {
	WWN    string
	Device scrutiny.Device
	Result scrutiny.SmartResult
}

func (s Snapshot) labelValues() []string {
	return []string{s.WWN, s.Device.DeviceName, s.Device.ModelName, s.Device.Protocol, s.Device.HostID}
}

// Synthesizer builds metric families from one pass worth of upstream data.
type Synthesizer struct {
	log *zap.SugaredLogger
}

// New creates a Synthesizer.
func New() *Synthesizer {
	return &Synthesizer{log: logger.For(logger.ComponentSynthesizer)}
}

// Synthesize runs every stage in order: device info, attributes, summary
// gauges and status aggregates. details may lack entries for any device.
func (s *Synthesizer) Synthesize(summary map[string]scrutiny.DeviceSummary, details map[string]*scrutiny.DeviceDetails) []*Family {
	snapshots := SelectSnapshots(details)

	var families []*Family
	families = append(families, s.DeviceFamilies(summary)...)
	families = append(families, s.AttributeFamilies(snapshots)...)
	families = append(families, s.SummaryFamilies(snapshots)...)
	families = append(families, s.StatusFamilies(summary)...)
	return families
}

// SelectSnapshots picks one snapshot per device, ordered by WWN. Devices
// without a data object or without snapshots are left out.
func SelectSnapshots(details map[string]*scrutiny.DeviceDetails) []Snapshot {
	snapshots := make([]Snapshot, 0, len(details))
	for _, wwn := range sortedKeys(details) {
		record := details[wwn]
		if record == nil || record.Data == nil {
			continue
		}
		result, ok := smart.SelectLatest(record.Data.SmartResults)
		if !ok {
			continue
		}
		snapshots = append(snapshots, Snapshot{WWN: wwn, Device: record.Data.Device, Result: result})
	}
	return snapshots
}

// DeviceFamilies builds the info, capacity and status families from the summary.
func (s *Synthesizer) DeviceFamilies(summary map[string]scrutiny.DeviceSummary) []*Family {
	info := newFamily("scrutiny_device_info", "Device information", KindInfo, deviceInfoLabels, s.log)
	capacity := newFamily("scrutiny_device_capacity_bytes", "Device capacity in bytes", KindGauge, deviceLabels, s.log)
	status := newFamily("scrutiny_device_status", "Device status (0=passed, 1=failed)", KindGauge, deviceLabels, s.log)

	for _, wwn := range sortedKeys(summary) {
		device := summary[wwn].Device

		info.add(1, wwn, device.DeviceName, device.ModelName, device.SerialNumber,
			device.Firmware, device.Protocol, device.HostID, device.FormFactor)

		labels := []string{wwn, device.DeviceName, device.ModelName, device.Protocol, device.HostID}
		if device.Capacity != 0 {
			capacity.add(device.Capacity, labels...)
		}
		status.add(device.DeviceStatus, labels...)
	}

	return []*Family{info, capacity, status}
}

// AttributeFamilies builds one family per distinct attribute property found
// in the selected snapshots. Numeric values go to a gauge, everything else to
// a companion _info family.
func (s *Synthesizer) AttributeFamilies(snapshots []Snapshot) []*Family {
	reg := newRegistry(s.log)

	for _, snap := range snapshots {
		for _, attrID := range sortedKeys(snap.Result.Attrs) {
			properties, ok := snap.Result.Attrs[attrID].(map[string]any)
			if !ok {
				continue
			}

			labels := append(snap.labelValues(), attrID)
			safeAttr := smart.Sanitize(attrID)

			for _, property := range sortedKeys(properties) {
				raw := properties[property]
				if raw == nil {
					continue
				}

				base := attributePrefix + safeAttr + "_" + smart.Sanitize(property)

				if value, numeric := smart.ParseNumeric(raw); numeric {
					help := fmt.Sprintf("SMART attribute %s %s", attrID, property)
					if f := reg.family(base, help, KindGauge, attributeLabels); f != nil {
						f.add(value, labels...)
					}
					continue
				}

				help := fmt.Sprintf("SMART attribute %s %s (string)", attrID, property)
				if f := reg.family(base+"_info", help, KindInfo, attributeInfo); f != nil {
					f.add(1, append(labels, smart.StringValue(raw))...)
				}
			}
		}
	}

	return reg.families()
}

// SummaryFamilies builds temperature, power-on hours, power cycle count and
// the collection timestamp in milliseconds.
func (s *Synthesizer) SummaryFamilies(snapshots []Snapshot) []*Family {
	temperature := newFamily("scrutiny_smart_temperature_celsius", "Device temperature in Celsius", KindGauge, deviceLabels, s.log)
	powerOnHours := newFamily("scrutiny_smart_power_on_hours", "Device power on hours", KindGauge, deviceLabels, s.log)
	powerCycles := newFamily("scrutiny_smart_power_cycle_count", "Device power cycle count", KindGauge, deviceLabels, s.log)
	timestamp := newFamily("scrutiny_smart_collector_timestamp", "Timestamp of last data collection", KindGauge, deviceLabels, s.log)

	for _, snap := range snapshots {
		labels := snap.labelValues()
		result := snap.Result

		if result.Temp != nil {
			temperature.add(*result.Temp, labels...)
		}
		if result.PowerOnHours != nil {
			powerOnHours.add(*result.PowerOnHours, labels...)
		}
		if result.PowerCycleCount != nil {
			powerCycles.add(*result.PowerCycleCount, labels...)
		}
		if result.Date != "" {
			t, err := smart.ParseTimestamp(result.Date)
			if err != nil {
				s.log.Debugf("Skipping collector timestamp for %s: %v", snap.WWN, err)
			} else {
				timestamp.add(float64(t.UnixNano())/1e6, labels...)
			}
		}
	}

	return []*Family{temperature, powerOnHours, powerCycles, timestamp}
}

// StatusFamilies builds the device total and the per-protocol device count.
func (s *Synthesizer) StatusFamilies(summary map[string]scrutiny.DeviceSummary) []*Family {
	total := newFamily("scrutiny_devices_total", "Total number of monitored devices", KindGauge, nil, s.log)
	total.add(float64(len(summary)))

	counts := map[string]int{}
	for _, entry := range summary {
		protocol := entry.Device.Protocol
		if protocol == "" {
			protocol = UnknownProtocol
		}
		counts[protocol]++
	}

	byProtocol := newFamily("scrutiny_devices_by_protocol", "Number of devices by protocol", KindGauge, []string{"protocol"}, s.log)
	for _, protocol := range sortedKeys(counts) {
		byProtocol.add(float64(counts[protocol]), protocol)
	}

	return []*Family{total, byProtocol}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
