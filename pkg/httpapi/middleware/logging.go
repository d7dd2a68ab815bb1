// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/faradayio/falconeri/pkg/logger/log"
)

// HandleLogging logs one line per request: method, path, status, duration.
func HandleLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infof(
			"Request: Method=%s | Path=%s | Status=%d | IP=%s | Duration=%v",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			c.ClientIP(),
			time.Since(start),
		)
	}
}
