// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/logger/log"
	"github.com/faradayio/falconeri/pkg/rest"
)

// HandleErrors renders the first error a handler attached to the gin
// context as a rest.Response, translating apierrors.Error codes to an HTTP
// status. Handlers call c.Error(err) and return rather than writing a
// response body themselves.
func HandleErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors[0]
		if apiErr, ok := err.Err.(*apierrors.Error); ok {
			log.Errorf("request %s %s failed: code=%d message=%s error=%v", c.Request.Method, c.Request.URL.Path, apiErr.Code, apiErr.Message, apiErr.InnerError)
			c.AbortWithStatusJSON(httpStatusFor(apiErr.Code), rest.ErrorResp(apiErr.Code, apiErr.Message, nil))
			return
		}

		if errors.Is(err.Err, context.DeadlineExceeded) {
			log.Errorf("request %s %s timed out", c.Request.Method, c.Request.URL.Path)
			c.AbortWithStatusJSON(httpStatusFor(apierrors.CodeTimeout), rest.ErrorResp(apierrors.CodeTimeout, "request timed out", nil))
			return
		}

		log.Errorf("request %s %s failed with unwrapped error: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, rest.ErrorResp(apierrors.CodeInternal, "internal error", nil))
	}
}

func httpStatusFor(code int) int {
	switch code {
	case apierrors.CodeValidation:
		return http.StatusBadRequest
	case apierrors.CodeNotFound:
		return http.StatusNotFound
	case apierrors.CodeStaleState:
		return http.StatusConflict
	case apierrors.CodeOutputClobber:
		return http.StatusConflict
	case apierrors.CodeCanceledByServer:
		return http.StatusGone
	case apierrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case apierrors.CodeClusterUnavailable, apierrors.CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
