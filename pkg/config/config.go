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

// Package config resolves the exporter configuration from defaults, an
// optional YAML file, environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/env"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/logger"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment variable names.
const (
	EnvAPIURL        = "SCRUTINY_API_URL"
	EnvPort          = "EXPORTER_PORT"
	EnvTimeout       = "API_TIMEOUT"
	EnvCacheDuration = "CACHE_DURATION"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFormat     = "LOG_FORMAT"
	EnvAccessLog     = "ACCESS_LOG"
	EnvConfigFile    = "CONFIG_FILE"
)

// Flag names.
const (
	FlagAPIURL        = "api-url"
	FlagPort          = "port"
	FlagTimeout       = "timeout"
	FlagCacheDuration = "cache-duration"
	FlagLogLevel      = "log-level"
	FlagLogFormat     = "log-format"
	FlagAccessLog     = "access-log"
	FlagConfig        = "config"
)

// Config is the resolved exporter configuration.
type Config struct {
	APIURL string `yaml:"api_url"`
	Port   int    `yaml:"port"`
	// TimeoutSeconds bounds every upstream request.
	TimeoutSeconds int `yaml:"timeout"`
	// CacheDurationSeconds is the detail cache TTL; 0 disables caching.
	CacheDurationSeconds int    `yaml:"cache_duration"`
	LogLevel             string `yaml:"log_level"`
	LogFormat            string `yaml:"log_format"`
	AccessLog            bool   `yaml:"access_log"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		APIURL:               "http://localhost:8080",
		Port:                 9900,
		TimeoutSeconds:       10,
		CacheDurationSeconds: 60,
		LogLevel:             "INFO",
		LogFormat:            string(logger.FormatConsole),
		AccessLog:            false,
	}
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the detail cache TTL.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheDurationSeconds) * time.Second
}

// ListenAddr returns the address the metrics server binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// RegisterFlags defines every configuration flag on fs with the built-in defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagAPIURL, d.APIURL, "Scrutiny API URL (env: "+EnvAPIURL+")")
	fs.Int(FlagPort, d.Port, "Exporter port (env: "+EnvPort+")")
	fs.Int(FlagTimeout, d.TimeoutSeconds, "API request timeout in seconds (env: "+EnvTimeout+")")
	fs.Int(FlagCacheDuration, d.CacheDurationSeconds, "Cache device details for N seconds, 0 disables the cache (env: "+EnvCacheDuration+")")
	fs.String(FlagLogLevel, d.LogLevel, "Log level: DEBUG, INFO, WARNING or ERROR (env: "+EnvLogLevel+")")
	fs.String(FlagLogFormat, d.LogFormat, "Log format: CONSOLE or JSON (env: "+EnvLogFormat+")")
	fs.Bool(FlagAccessLog, d.AccessLog, "Log every HTTP request to the exporter (env: "+EnvAccessLog+")")
	fs.String(FlagConfig, "", "Optional YAML configuration file (env: "+EnvConfigFile+")")
}

// Load resolves the configuration for fs, which must carry the flags from
// RegisterFlags and be parsed already.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := Default()

	path, err := configPath(fs)
	if err != nil {
		return cfg, err
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func configPath(fs *pflag.FlagSet) (string, error) {
	if f := fs.Lookup(FlagConfig); f != nil && f.Changed {
		return fs.GetString(FlagConfig)
	}
	return env.GetAsString(EnvConfigFile, false, "")
}

// LoadFile overlays the keys present in the YAML file at path. Unknown keys
// are rejected; an empty file changes nothing.
func (c *Config) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays the environment variables that are set.
func (c *Config) ApplyEnv() error {
	var errs []error
	var err error

	if c.APIURL, err = env.GetAsString(EnvAPIURL, false, c.APIURL); err != nil {
		errs = append(errs, err)
	}
	if c.Port, err = env.GetAsInt(EnvPort, false, c.Port); err != nil {
		errs = append(errs, err)
	}
	if c.TimeoutSeconds, err = env.GetAsInt(EnvTimeout, false, c.TimeoutSeconds); err != nil {
		errs = append(errs, err)
	}
	if c.CacheDurationSeconds, err = env.GetAsInt(EnvCacheDuration, false, c.CacheDurationSeconds); err != nil {
		errs = append(errs, err)
	}
	if c.LogLevel, err = env.GetAsString(EnvLogLevel, false, c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat, err = env.GetAsString(EnvLogFormat, false, c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	if c.AccessLog, err = env.GetAsBool(EnvAccessLog, false, c.AccessLog); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ApplyFlags overlays the flags that were set explicitly on the command line.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var errs []error
	fs.Visit(func(f *pflag.Flag) {
		var err error
		switch f.Name {
		case FlagAPIURL:
			c.APIURL, err = fs.GetString(f.Name)
		case FlagPort:
			c.Port, err = fs.GetInt(f.Name)
		case FlagTimeout:
			c.TimeoutSeconds, err = fs.GetInt(f.Name)
		case FlagCacheDuration:
			c.CacheDurationSeconds, err = fs.GetInt(f.Name)
		case FlagLogLevel:
			c.LogLevel, err = fs.GetString(f.Name)
		case FlagLogFormat:
			c.LogFormat, err = fs.GetString(f.Name)
		case FlagAccessLog:
			c.AccessLog, err = fs.GetBool(f.Name)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("flag --%s: %w", f.Name, err))
		}
	})

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api url %q must be an absolute http or https URL", c.APIURL))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d must be between 1 and 65535", c.Port))
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("timeout %d must be positive", c.TimeoutSeconds))
	}
	if c.CacheDurationSeconds < 0 {
		errs = append(errs, fmt.Errorf("cache duration %d must not be negative", c.CacheDurationSeconds))
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if _, ok := logger.ParseFormat(c.LogFormat); !ok {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// String renders the configuration for startup logs.
func (c Config) String() string {
	return fmt.Sprintf("api_url=%s port=%d timeout=%s cache_duration=%s log_level=%s log_format=%s access_log=%t",
		c.APIURL, c.Port, c.Timeout(), c.CacheTTL(), c.LogLevel, c.LogFormat, c.AccessLog)
}
