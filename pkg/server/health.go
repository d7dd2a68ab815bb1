// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faradayio/falconeri/pkg/logger/log"
)

var healthOnce sync.Once

// InitHealthServer starts a side gin engine on addr serving /healthz,
// /readyz, and Prometheus /metrics, separate from the main API engine so a
// slow or saturated API never blocks liveness checks.
func InitHealthServer(addr string) {
	healthOnce.Do(func() {
		engine := gin.New()
		engine.Use(gin.Recovery())

		engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
		engine.GET("/readyz", func(c *gin.Context) { c.Status(http.StatusOK) })
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{EnableOpenMetrics: true})))

		go func() {
			if err := engine.Run(addr); err != nil {
				log.Errorf("health server on %s exited: %v", addr, err)
			}
		}()
	})
}
