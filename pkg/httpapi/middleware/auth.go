// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faradayio/falconeri/pkg/rest"
)

// TokenHeader is the header workers and clients present a shared secret in.
const TokenHeader = "X-Falconeri-Token"

// HandleAuth rejects any request that doesn't present the configured shared
// secret in TokenHeader. Unlike the teacher's SaFE/LDAP session auth, there
// is no identity here, just a single pre-shared secret (spec.md §4.9).
func HandleAuth(sharedSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(TokenHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(sharedSecret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, rest.ErrorResp(http.StatusUnauthorized, "missing or invalid "+TokenHeader, nil))
			return
		}
		c.Next()
	}
}
