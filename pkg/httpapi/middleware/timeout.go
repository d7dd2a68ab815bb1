// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// HandleTimeout bounds every request's context to timeout. Handlers and the
// facade calls they make all take ctx, so a deadline set here propagates
// down to the database query in flight. HandleErrors renders a bare
// context.DeadlineExceeded as apierrors.CodeTimeout; an error that a facade
// has already wrapped in an apierrors.Error keeps that error's own code.
func HandleTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
