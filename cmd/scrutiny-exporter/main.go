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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/spf13/cobra"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/cache"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/collector"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/config"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/logger"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/metrics"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/scrutiny"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/server"
	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/synthesizer"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:           "scrutiny-exporter",
	Short:         "Exports Scrutiny SMART data as Prometheus metrics.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	config.RegisterFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	format, _ := logger.ParseFormat(cfg.LogFormat)
	logger.Initialize(cfg.LogLevel, format)
	defer func() { _ = logger.Sync() }()
	log := logger.For(logger.ComponentMain)

	log.Infof("Starting scrutiny-exporter: %s", cfg)
	log.Infof("Scrutiny API: %s", cfg.APIURL)
	log.Infof("Cache duration: %s", cfg.CacheTTL())
	log.Infof("Metrics endpoint: http://localhost:%d%s", cfg.Port, server.MetricsPath)

	reg := metrics.NewRegistry()
	selfMetrics := metrics.New(reg)

	client := scrutiny.NewClient(cfg.APIURL, scrutiny.NewHTTPClient(cfg.Timeout()), selfMetrics)
	detailCache := cache.New[*scrutiny.DeviceDetails](cfg.CacheTTL(), logger.For(logger.ComponentCache))
	fetcher := scrutiny.NewDetailFetcher(client, detailCache, selfMetrics)
	col := collector.New(client, fetcher, synthesizer.New(), selfMetrics)
	reg.MustRegister(col)

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	health.AddReadinessCheck("scrutiny-summary", col.ReadinessCheck())

	srv := server.New(cfg.ListenAddr(), reg, health, cfg.AccessLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		log.Info("Received stop signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("Shutdown complete")
	return nil
}
