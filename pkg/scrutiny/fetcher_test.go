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
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/cache"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/metrics"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/scrutiny"
)

type fakeUpstream struct {
	calls   map[string]int
	failing map[string]error
}

func (f *fakeUpstream) GetDeviceDetails(_ context.Context, wwn string) (*scrutiny.DeviceDetails, error) {
	f.calls[wwn]++
	if err, ok := f.failing[wwn]; ok {
		return nil, err
	}
	return &scrutiny.DeviceDetails{
		Data: &scrutiny.DetailsData{Device: scrutiny.Device{WWN: wwn}},
	}, nil
}

var _ = Describe("DetailFetcher", func() {
	var (
		upstream *fakeUpstream
		m        *metrics.Metrics
		ctx      context.Context
	)

	BeforeEach(func() {
		upstream = &fakeUpstream{calls: map[string]int{}, failing: map[string]error{}}
		m = metrics.New(metrics.NewRegistry())
		ctx = context.Background()
	})

	It("serves repeated lookups from the cache", func() {
		fetcher := scrutiny.NewDetailFetcher(upstream, cache.New[*scrutiny.DeviceDetails](time.Minute, nil), m)

		first, ok := fetcher.Fetch(ctx, "0x1")
		Expect(ok).To(BeTrue())
		second, ok := fetcher.Fetch(ctx, "0x1")
		Expect(ok).To(BeTrue())

		Expect(second).To(BeIdenticalTo(first))
		Expect(upstream.calls["0x1"]).To(Equal(1))
		Expect(testutil.ToFloat64(m.CacheLookups(metrics.CacheHit))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.CacheLookups(metrics.CacheMiss))).To(Equal(1.0))
	})

	It("fetches again once the entry expired", func() {
		fetcher := scrutiny.NewDetailFetcher(upstream, cache.New[*scrutiny.DeviceDetails](20*time.Millisecond, nil), m)

		_, ok := fetcher.Fetch(ctx, "0x1")
		Expect(ok).To(BeTrue())
		time.Sleep(40 * time.Millisecond)
		_, ok = fetcher.Fetch(ctx, "0x1")
		Expect(ok).To(BeTrue())

		Expect(upstream.calls["0x1"]).To(Equal(2))
	})

	It("soft-fails and does not cache failures", func() {
		upstream.failing["0x2"] = errors.New("connection refused")
		c := cache.New[*scrutiny.DeviceDetails](time.Minute, nil)
		fetcher := scrutiny.NewDetailFetcher(upstream, c, m)

		details, ok := fetcher.Fetch(ctx, "0x2")
		Expect(ok).To(BeFalse())
		Expect(details).To(BeNil())

		_, ok = fetcher.Fetch(ctx, "0x2")
		Expect(ok).To(BeFalse())
		Expect(upstream.calls["0x2"]).To(Equal(2))
		Expect(c.Len()).To(Equal(0))
	})
})
