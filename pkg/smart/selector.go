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

package smart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/scrutiny"
)

// ErrUnparseableTimestamp is returned by ParseTimestamp for strings in no known layout.
var ErrUnparseableTimestamp = errors.New("unparseable timestamp")

// Layouts accepted by ParseTimestamp, tried in order. Fractional seconds are
// accepted after the seconds field without being spelled out.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 style timestamp. A trailing "Z" means
// UTC and timestamps without an offset are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	candidate := strings.TrimSpace(value)
	if strings.HasSuffix(candidate, "Z") {
		candidate = strings.TrimSuffix(candidate, "Z") + "+00:00"
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, candidate, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTimestamp, value)
}

// ResultTimestamp returns the first parseable of date, smart_date and
// collector_date. Empty fields are skipped.
func ResultTimestamp(result scrutiny.SmartResult) (time.Time, bool) {
	for _, field := range []string{result.Date, result.SmartDate, result.CollectorDate} {
		if field == "" {
			continue
		}
		if t, err := ParseTimestamp(field); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SelectLatest picks the snapshot to report for one device.
//
// The snapshot with the greatest timestamp wins; on equal timestamps the
// earlier one is kept. When no snapshot carries a parseable timestamp the
// last snapshot is returned. An empty input yields false.
func SelectLatest(results []scrutiny.SmartResult) (scrutiny.SmartResult, bool) {
	if len(results) == 0 {
		return scrutiny.SmartResult{}, false
	}

	best := -1
	var bestTime time.Time
	for i, result := range results {
		t, ok := ResultTimestamp(result)
		if !ok {
			continue
		}
		if best == -1 || t.After(bestTime) {
			best = i
			bestTime = t
		}
	}

	if best == -1 {
		return results[len(results)-1], true
	}
	return results[best], true
}
