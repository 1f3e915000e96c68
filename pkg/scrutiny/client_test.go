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

package scrutiny_test

import (
	"context"
	"time"

	"github.com/h2non/gock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/metrics"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/scrutiny"
)

const apiURL = "http://scrutiny.test:8080"

var _ = Describe("Client", func() {
	var (
		client *scrutiny.Client
		m      *metrics.Metrics
		ctx    context.Context
	)

	BeforeEach(func() {
		m = metrics.New(metrics.NewRegistry())
		client = scrutiny.NewClient(apiURL+"/", scrutiny.NewHTTPClient(2*time.Second), m)
		gock.InterceptClient(client.HTTPClient())
		ctx = context.Background()
	})

	AfterEach(func() {
		gock.RestoreClient(client.HTTPClient())
		gock.OffAll()
	})

	Context("GetSummary", func() {
		It("decodes the summary map", func() {
			gock.New(apiURL).
				Get("/api/summary").
				Reply(200).
				JSON(map[string]any{
					"success": true,
					"data": map[string]any{
						"summary": map[string]any{
							"0x5000c500a1b2c3d4": map[string]any{
								"device": map[string]any{
									"wwn":             "0x5000c500a1b2c3d4",
									"device_name":     "sda",
									"model_name":      "ST4000VN008",
									"serial_number":   "ZDH1",
									"firmware":        "SC60",
									"device_protocol": "ATA",
									"host_id":         "nas",
									"form_factor":     "3.5 inches",
									"capacity":        4000787030016,
									"device_status":   0,
								},
							},
						},
					},
				})

			summary, err := client.GetSummary(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary).To(HaveKey("0x5000c500a1b2c3d4"))

			device := summary["0x5000c500a1b2c3d4"].Device
			Expect(device.DeviceName).To(Equal("sda"))
			Expect(device.Protocol).To(Equal("ATA"))
			Expect(device.Capacity).To(Equal(4000787030016.0))
			Expect(gock.IsDone()).To(BeTrue())
			Expect(testutil.ToFloat64(m.UpstreamRequests(metrics.EndpointSummary, metrics.OutcomeSuccess))).To(Equal(1.0))
		})

		It("accepts an empty summary", func() {
			gock.New(apiURL).
				Get("/api/summary").
				Reply(200).
				JSON(map[string]any{"data": map[string]any{"summary": map[string]any{}}})

			summary, err := client.GetSummary(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(summary).To(BeEmpty())
		})

		DescribeTable("rejects bodies without the expected structure",
			func(body map[string]any) {
				gock.New(apiURL).Get("/api/summary").Reply(200).JSON(body)

				_, err := client.GetSummary(ctx)
				Expect(err).To(MatchError(scrutiny.ErrMalformedResponse))
				Expect(testutil.ToFloat64(m.UpstreamRequests(metrics.EndpointSummary, metrics.OutcomeError))).To(Equal(1.0))
			},
			Entry("missing data", map[string]any{"success": true}),
			Entry("null data", map[string]any{"data": nil}),
			Entry("missing summary", map[string]any{"data": map[string]any{}}),
			Entry("null summary", map[string]any{"data": map[string]any{"summary": nil}}),
		)

		It("rejects invalid JSON", func() {
			gock.New(apiURL).Get("/api/summary").Reply(200).BodyString("<html>")

			_, err := client.GetSummary(ctx)
			Expect(err).To(MatchError(scrutiny.ErrMalformedResponse))
		})

		It("reports non-2xx responses", func() {
			gock.New(apiURL).Get("/api/summary").Reply(503)

			_, err := client.GetSummary(ctx)
			Expect(err).To(MatchError(scrutiny.ErrUnexpectedStatus))
		})

		It("reports transport failures", func() {
			_, err := client.GetSummary(ctx)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("GetDeviceDetails", func() {
		It("decodes snapshots and raw attribute values", func() {
			gock.New(apiURL).
				Get("/api/device/0xabc/details").
				Reply(200).
				JSON(map[string]any{
					"data": map[string]any{
						"device": map[string]any{"wwn": "0xabc", "device_name": "sdb"},
						"smart_results": []any{
							map[string]any{
								"date":              "2025-01-02T03:04:05Z",
								"temp":              35,
								"power_on_hours":    1000,
								"power_cycle_count": nil,
								"attrs": map[string]any{
									"5": map[string]any{"raw_value": "100", "when_failed": ""},
								},
							},
						},
					},
				})

			details, err := client.GetDeviceDetails(ctx, "0xabc")
			Expect(err).ToNot(HaveOccurred())
			Expect(details.Data.Device.DeviceName).To(Equal("sdb"))
			Expect(details.Data.SmartResults).To(HaveLen(1))

			result := details.Data.SmartResults[0]
			Expect(result.Date).To(Equal("2025-01-02T03:04:05Z"))
			Expect(*result.Temp).To(Equal(35.0))
			Expect(*result.PowerOnHours).To(Equal(1000.0))
			Expect(result.PowerCycleCount).To(BeNil())
			Expect(result.Attrs).To(HaveKeyWithValue("5", HaveKeyWithValue("raw_value", "100")))
			Expect(testutil.ToFloat64(m.UpstreamRequests(metrics.EndpointDetails, metrics.OutcomeSuccess))).To(Equal(1.0))
		})

		It("rejects a body without a data object", func() {
			gock.New(apiURL).Get("/api/device/0xabc/details").Reply(200).JSON(map[string]any{"success": false})

			_, err := client.GetDeviceDetails(ctx, "0xabc")
			Expect(err).To(MatchError(scrutiny.ErrMalformedResponse))
		})
	})
})
