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
	"math/big"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

var sanitizer = strings.NewReplacer(" ", "_", "-", "_", ".", "_")

// Sanitize turns an attribute id or property name into a metric name component.
func Sanitize(value string) string {
	return sanitizer.Replace(strings.ToLower(strings.TrimSpace(value)))
}

// ParseNumeric classifies a raw attribute value.
// Numbers and booleans are numeric, as are strings holding a decimal float
// or a 0x-prefixed hexadecimal integer. Everything else, nil included, is not.
func ParseNumeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumericString(v)
	default:
		return 0, false
	}
}

func parseNumericString(raw string) (float64, bool) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(candidate, 64)
	if err == nil || errors.Is(err, strconv.ErrRange) {
		return f, true
	}

	if strings.HasPrefix(candidate, "0x") || strings.HasPrefix(candidate, "0X") {
		n, ok := new(big.Int).SetString(candidate, 0)
		if !ok {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	}

	return 0, false
}

// StringValue renders a non-numeric value for an info payload.
// Strings are used as-is, composites as their JSON encoding.
func StringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(encoded)
}
