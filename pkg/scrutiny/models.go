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

package scrutiny

// Device holds the identity fields Scrutiny reports for one drive.
type Device struct {
	WWN          string  `json:"wwn"`
	DeviceName   string  `json:"device_name"`
	ModelName    string  `json:"model_name"`
	SerialNumber string  `json:"serial_number"`
	Firmware     string  `json:"firmware"`
	Protocol     string  `json:"device_protocol"`
	HostID       string  `json:"host_id"`
	FormFactor   string  `json:"form_factor"`
	Capacity     float64 `json:"capacity"`
	// DeviceStatus is 0 when the device passed its checks.
	DeviceStatus float64 `json:"device_status"`
}

// DeviceSummary is one entry of the /api/summary map.
type DeviceSummary struct {
	Device Device `json:"device"`
}

// SummaryResponse is the body of GET /api/summary.
type SummaryResponse struct {
	Data *struct {
		Summary map[string]DeviceSummary `json:"summary"`
	} `json:"data"`
}

// SmartResult is one historical SMART snapshot of a device.
type SmartResult struct {
	Date          string `json:"date"`
	SmartDate     string `json:"smart_date"`
	CollectorDate string `json:"collector_date"`

	Temp            *float64 `json:"temp"`
	PowerOnHours    *float64 `json:"power_on_hours"`
	PowerCycleCount *float64 `json:"power_cycle_count"`

	// Attrs maps attribute id to property name to raw value.
	// Values keep their JSON shape: float64, bool, string, nil or composites.
	Attrs map[string]any `json:"attrs"`
}

// DetailsData is the data object of a device detail response.
type DetailsData struct {
	Device       Device        `json:"device"`
	SmartResults []SmartResult `json:"smart_results"`
}

// DeviceDetails is the body of GET /api/device/{wwn}/details.
type DeviceDetails struct {
	Data *DetailsData `json:"data"`
}
