// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingDatabaseURL(t *testing.T) {
	resetForTest()
	os.Unsetenv("FALCONERI_DATABASE_URL")
	os.Unsetenv("FALCONERI_SHARED_SECRET")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	resetForTest()
	os.Setenv("FALCONERI_DATABASE_URL", "postgres://localhost/falconeri")
	os.Setenv("FALCONERI_SHARED_SECRET", "s3cr3t")
	defer func() {
		os.Unsetenv("FALCONERI_DATABASE_URL")
		os.Unsetenv("FALCONERI_SHARED_SECRET")
		resetForTest()
	}()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, ":8081", cfg.HealthAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "falconeri", cfg.Namespace)
}
