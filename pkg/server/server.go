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

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/logger"
)

const (
	MetricsPath = "/metrics"
	LivePath    = "/live"
	ReadyPath   = "/ready"
)

// Server exposes the registry and health probes over HTTP.
type Server struct {
	httpServer *http.Server
	log        *zap.SugaredLogger
}

// New builds a server listening on addr. Every scrape of MetricsPath gathers
// reg, which runs one collection pass. accessLog enables per-request logging.
func New(addr string, reg *prometheus.Registry, health healthcheck.Handler, accessLog bool) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if accessLog {
		router.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	}
	// Logs all panics with their stack.
	router.Use(ginzap.RecoveryWithZap(zap.L(), true))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "online")
	})

	metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(zap.L()),
		ErrorHandling: promhttp.ContinueOnError,
		Registry:      reg,
	})
	router.GET(MetricsPath, gin.WrapH(metricsHandler))
	router.GET(LivePath, gin.WrapF(health.LiveEndpoint))
	router.GET(ReadyPath, gin.WrapF(health.ReadyEndpoint))

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logger.For(logger.ComponentServer),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Infof("Serving metrics on %s%s", s.httpServer.Addr, MetricsPath)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server on %s failed: %w", s.httpServer.Addr, err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight scrapes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}
