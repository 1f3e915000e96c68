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

// Package scrutiny talks to the Scrutiny web API.
package scrutiny

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/logger"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/metrics"
)

const (
	summaryPath = "/api/summary"
	detailsPath = "/api/device/%s/details"
)

// NewHTTPClient returns a client whose requests are bounded by timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
		TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
		IdleConnTimeout:   90 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Client issues requests against one Scrutiny instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        *zap.SugaredLogger
}

// NewClient creates a client for baseURL. A nil httpClient uses NewHTTPClient
// with a ten second timeout. m may be nil.
func NewClient(baseURL string, httpClient *http.Client, m *metrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(10 * time.Second)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		metrics:    m,
		log:        logger.For(logger.ComponentScrutinyClient),
	}
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// GetSummary fetches the device summary, keyed by WWN.
// A body without data or data.summary is reported as ErrMalformedResponse.
func (c *Client) GetSummary(ctx context.Context) (summary map[string]DeviceSummary, err error) {
	defer func() { c.metrics.IncUpstreamRequest(metrics.EndpointSummary, err) }()

	var response SummaryResponse
	if err = c.getJSON(ctx, summaryPath, &response); err != nil {
		return nil, err
	}

	if response.Data == nil {
		return nil, fmt.Errorf("%w: missing data object", ErrMalformedResponse)
	}
	if response.Data.Summary == nil {
		return nil, fmt.Errorf("%w: missing data.summary object", ErrMalformedResponse)
	}

	return response.Data.Summary, nil
}

// GetDeviceDetails fetches the detail record of one device.
// A body without a data object is reported as ErrMalformedResponse.
func (c *Client) GetDeviceDetails(ctx context.Context, wwn string) (details *DeviceDetails, err error) {
	defer func() { c.metrics.IncUpstreamRequest(metrics.EndpointDetails, err) }()

	var response DeviceDetails
	if err = c.getJSON(ctx, fmt.Sprintf(detailsPath, url.PathEscape(wwn)), &response); err != nil {
		return nil, err
	}

	if response.Data == nil {
		return nil, fmt.Errorf("%w: missing data object", ErrMalformedResponse)
	}

	return &response, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) (responseErr error) {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	response, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			if responseErr != nil {
				c.log.Errorf("Error closing response body: %v", err)
			} else {
				responseErr = fmt.Errorf("error closing response body: %w", err)
			}
		}
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	c.log.Debugf("GET %s -> %d in %s", endpoint, response.StatusCode, time.Since(start))

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %s", ErrUnexpectedStatus, endpoint, response.Status)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, endpoint, err)
	}

	return nil
}
