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

import (
	"context"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/cache"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/logger"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/metrics"
)

// DetailsGetter fetches one device detail record from upstream.
type DetailsGetter interface {
	GetDeviceDetails(ctx context.Context, wwn string) (*DeviceDetails, error)
}

// DetailFetcher returns device details, serving from the cache when possible.
type DetailFetcher struct {
	upstream DetailsGetter
	cache    *cache.TTL[*DeviceDetails]
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
}

// NewDetailFetcher creates a fetcher backed by upstream and c. m may be nil.
func NewDetailFetcher(upstream DetailsGetter, c *cache.TTL[*DeviceDetails], m *metrics.Metrics) *DetailFetcher {
	return &DetailFetcher{
		upstream: upstream,
		cache:    c,
		metrics:  m,
		log:      logger.For(logger.ComponentDetailFetcher),
	}
}

// Fetch returns the detail record for wwn.
// Upstream failures are logged and reported as false; they are never cached.
func (f *DetailFetcher) Fetch(ctx context.Context, wwn string) (*DeviceDetails, bool) {
	if details, ok := f.cache.Get(wwn); ok {
		f.metrics.IncCacheLookup(true)
		return details, true
	}
	f.metrics.IncCacheLookup(false)

	details, err := f.upstream.GetDeviceDetails(ctx, wwn)
	if err != nil {
		f.log.Warnf("Failed to fetch details for device %s: %v", wwn, err)
		return nil, false
	}

	f.cache.Set(wwn, details)
	return details, true
}
