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

package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Lookup reports whether key is set to a non-blank value.
func Lookup(key string) (string, bool) {
	value, set := os.LookupEnv(key)
	if !set || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// GetAsString retrieves an environment variable as a string.
// If required is true and the variable is not set, an error is returned.
// If not required and not set, defaultValue is returned.
func GetAsString(key string, required bool, defaultValue string) (string, error) {
	value, set := Lookup(key)
	if !set {
		if required {
			return "", fmt.Errorf("required environment variable %s is not set", key)
		}
		return defaultValue, nil
	}
	return value, nil
}

// GetAsInt retrieves an environment variable as an integer.
// A value that is set but not an integer returns defaultValue and an error.
func GetAsInt(key string, required bool, defaultValue int) (int, error) {
	value, set := Lookup(key)
	if !set {
		if required {
			return 0, fmt.Errorf("required environment variable %s is not set", key)
		}
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}

	return intValue, nil
}

// GetAsBool retrieves an environment variable as a boolean.
func GetAsBool(key string, required bool, defaultValue bool) (bool, error) {
	value, set := Lookup(key)
	if !set {
		if required {
			return false, fmt.Errorf("required environment variable %s is not set", key)
		}
		return defaultValue, nil
	}

	switch strings.ToLower(value) {
	case "true", "1", "yes", "y", "on":
		return true, nil
	case "false", "0", "no", "n", "off":
		return false, nil
	default:
		return defaultValue, fmt.Errorf("environment variable %s must be a boolean value", key)
	}
}
