// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/faradayio/falconeri/pkg/logger/log"
)

// RetryConfig controls WithRetry's backoff.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	DelayMultiple float64
}

// DefaultRetryConfig is used by WithRetry.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:    3,
	InitialDelay:  500 * time.Millisecond,
	MaxDelay:      5 * time.Second,
	DelayMultiple: 2.0,
}

func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()

	connectionErrors := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"i/o timeout",
		"could not serialize access",
		"SQLSTATE 40001", // serialization_failure
	}
	for _, pattern := range connectionErrors {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// WithRetry wraps a database operation with bounded exponential backoff,
// retrying only errors isRetriableError recognizes as transient.
func WithRetry(ctx context.Context, fn func() error) error {
	return WithRetryConfig(ctx, DefaultRetryConfig, fn)
}

func WithRetryConfig(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				log.Infof("database operation succeeded after %d retries", attempt)
			}
			return nil
		}
		lastErr = err

		if !isRetriableError(err) {
			return err
		}
		if attempt >= config.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded, last error: %w", config.MaxRetries, lastErr)
		}

		log.Warnf("retriable database error (attempt %d/%d): %v, retrying in %v", attempt+1, config.MaxRetries, err, delay)

		select {
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * config.DelayMultiple)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry wait: %w", ctx.Err())
		}
	}
	return lastErr
}
