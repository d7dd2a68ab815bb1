// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/faradayio/falconeri/pkg/logger/log"
	"github.com/faradayio/falconeri/pkg/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.InitServer(ctx); err != nil {
		log.Errorf("falconeri daemon exited: %v", err)
		os.Exit(1)
	}
}
