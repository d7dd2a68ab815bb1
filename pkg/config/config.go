// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package config loads the daemon's environment-variable configuration
// (spec.md §6, "Environment (daemon)").
package config

import (
	"os"
	"time"

	"github.com/faradayio/falconeri/pkg/apierrors"
)

// Config holds everything the daemon needs at startup.
type Config struct {
	LogLevel             string
	DatabaseURL          string
	ListenAddr           string
	HealthAddr           string
	SharedSecret         string
	Namespace            string
	BabysitterInterval   time.Duration
	DefaultWorkerImage   string
	RequestTimeout       time.Duration
}

var loaded *Config

// Load reads the daemon's configuration from the environment. It is safe
// to call more than once; later calls return the same instance.
func Load() (*Config, error) {
	if loaded != nil {
		return loaded, nil
	}

	databaseURL := os.Getenv("FALCONERI_DATABASE_URL")
	if databaseURL == "" {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeInitializeError).
			WithMessage("FALCONERI_DATABASE_URL is required")
	}

	sharedSecret := os.Getenv("FALCONERI_SHARED_SECRET")
	if sharedSecret == "" {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeInitializeError).
			WithMessage("FALCONERI_SHARED_SECRET is required")
	}

	interval, err := time.ParseDuration(envOrDefault("FALCONERI_BABYSITTER_INTERVAL", "30s"))
	if err != nil {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeInitializeError).
			WithMessage("invalid FALCONERI_BABYSITTER_INTERVAL").
			WithError(err)
	}

	requestTimeout, err := time.ParseDuration(envOrDefault("FALCONERI_REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeInitializeError).
			WithMessage("invalid FALCONERI_REQUEST_TIMEOUT").
			WithError(err)
	}

	loaded = &Config{
		LogLevel:           envOrDefault("FALCONERI_LOG_LEVEL", "info"),
		DatabaseURL:        databaseURL,
		ListenAddr:         envOrDefault("FALCONERI_LISTEN_ADDR", ":8080"),
		HealthAddr:         envOrDefault("FALCONERI_HEALTH_ADDR", ":8081"),
		SharedSecret:       sharedSecret,
		Namespace:          envOrDefault("FALCONERI_NAMESPACE", "falconeri"),
		BabysitterInterval: interval,
		DefaultWorkerImage: envOrDefault("FALCONERI_WORKER_IMAGE", "falconeri/worker:latest"),
		RequestTimeout:     requestTimeout,
	}
	return loaded, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// resetForTest clears the cached config; used only by tests in this package.
func resetForTest() {
	loaded = nil
}
